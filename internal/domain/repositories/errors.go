package repositories

import "errors"

// Ошибки портов чтения источников и хранилища
var (
	ErrUnknownSource      = errors.New("unknown source")
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrUnknownTable       = errors.New("unknown table")
)
