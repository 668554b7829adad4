package analytics

import "errors"

// Domain-specific errors для analytics domain
var (
	ErrNotProcessed  = errors.New("source is not processed")
	ErrInvalidSource = errors.New("invalid source name")
	ErrInvalidTable  = errors.New("invalid table name")
)
