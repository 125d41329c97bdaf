package badge

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/campuseats/internal/httpapi"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type badgeResponse struct {
	Count int `json:"count"`
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)

	count, err := h.service.Count(r.Context(), userID)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, badgeResponse{Count: count})
}
