// Package httpapi holds the response and identity conventions shared by the
// storefront handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

// StatusFor maps a domain error kind to its HTTP status. Unknown errors map
// to 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode is the stable, client-facing name of an error kind.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "NotFound"
	case errors.Is(err, domain.ErrForbidden):
		return "Forbidden"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "InvalidQuantity"
	case errors.Is(err, domain.ErrEmptyCart):
		return "EmptyCart"
	case errors.Is(err, domain.ErrIllegalTransition):
		return "IllegalTransition"
	default:
		return "Internal"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Order any    `json:"order,omitempty"`
}

// WriteDomainError writes err as a typed error body. Unexpected errors are
// logged and hidden behind a generic message.
func WriteDomainError(w http.ResponseWriter, logger *slog.Logger, err error, attrs ...any) {
	WriteDomainErrorWith(w, logger, err, nil, attrs...)
}

// WriteDomainErrorWith is WriteDomainError with the current state of the
// affected order attached, so clients can resynchronise.
func WriteDomainErrorWith(w http.ResponseWriter, logger *slog.Logger, err error, current any, attrs ...any) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", append([]any{"error", err}, attrs...)...)
		WriteError(w, logger, status, "internal server error")
		return
	}

	logger.Info("request rejected", append([]any{"error", err, "status", status}, attrs...)...)
	WriteJSON(w, logger, status, errorResponse{Error: err.Error(), Code: ErrorCode(err), Order: current})
}
