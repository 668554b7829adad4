package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	analyticsdomain "salesanalytics/internal/domain/analytics"
	"salesanalytics/internal/domain/repositories"
	"salesanalytics/normalization"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown source", fmt.Errorf("%w: DATA9", repositories.ErrUnknownSource), http.StatusNotFound},
		{"unavailable", fmt.Errorf("failed to read books: %w", repositories.ErrSourceUnavailable), http.StatusServiceUnavailable},
		{"persistence", fmt.Errorf("failed to store: %w", repositories.ErrPersistenceFailure), http.StatusInternalServerError},
		{"not processed", analyticsdomain.ErrNotProcessed, http.StatusConflict},
		{"invalid table", analyticsdomain.ErrInvalidTable, http.StatusBadRequest},
		{"bad format", normalization.ErrUnsupportedFormat, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomainError(tt.err)
			if got.StatusCode() != tt.want {
				t.Errorf("FromDomainError(%v).StatusCode() = %d, want %d", tt.err, got.StatusCode(), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("FromDomainError(%v) lost the original error", tt.err)
			}
		})
	}
}

func TestFromDomainErrorNil(t *testing.T) {
	if FromDomainError(nil) != nil {
		t.Error("FromDomainError(nil) should be nil")
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	err := NewInternalError("query failed", errors.New("database is locked"))
	if err.UserMessage() != "Внутренняя ошибка сервера" {
		t.Errorf("UserMessage() = %q", err.UserMessage())
	}
	if err.Error() == err.UserMessage() {
		t.Error("Error() should include internal details")
	}
}

func TestWrapError(t *testing.T) {
	inner := NewNotFoundError("not found", nil)
	wrapped := WrapError(inner, "get metrics")
	if wrapped.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want %d", wrapped.Code, http.StatusNotFound)
	}
	if wrapped.Message != "get metrics: not found" {
		t.Errorf("Message = %q", wrapped.Message)
	}

	plain := WrapError(repositories.ErrSourceUnavailable, "process")
	if plain.Code != http.StatusServiceUnavailable || plain.Context != "process" {
		t.Errorf("WrapError() = %+v", plain)
	}

	if WrapError(nil, "x") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}
