package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
)

// Identity headers are set by the upstream authentication collaborator.
const (
	HeaderUserID = "X-User-ID"
	HeaderCafeID = "X-Cafe-ID"
)

func UserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUserID))
}

func CafeID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderCafeID))
}

// RequireUser rejects requests without an authenticated user.
func RequireUser(logger *slog.Logger, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserID(r) == "" {
			WriteError(w, logger, http.StatusUnauthorized, "missing user identity")
			return
		}
		h(w, r)
	}
}
