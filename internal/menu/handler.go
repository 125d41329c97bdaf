package menu

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/httpapi"
)

type Reader interface {
	GetFood(ctx context.Context, id string) (*domain.Food, error)
	GetCafe(ctx context.Context, id string) (*domain.Cafe, error)
	ListFoods(ctx context.Context, cafeID string) ([]domain.Food, error)
}

type Handler struct {
	repo   Reader
	logger *slog.Logger
}

func NewHandler(repo Reader, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleGetCafe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing cafe id")
		return
	}

	cafe, err := h.repo.GetCafe(r.Context(), id)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "cafe_id", id)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, cafe)
}

func (h *Handler) HandleListFoods(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing cafe id")
		return
	}

	if _, err := h.repo.GetCafe(r.Context(), id); err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "cafe_id", id)
		return
	}

	foods, err := h.repo.ListFoods(r.Context(), id)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "cafe_id", id)
		return
	}

	h.logger.Info("foods listed", "cafe_id", id, "count", len(foods))
	httpapi.WriteJSON(w, h.logger, http.StatusOK, foods)
}

// HandleGetFood looks up one food with its current menu price.
func (h *Handler) HandleGetFood(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing food id")
		return
	}

	food, err := h.repo.GetFood(r.Context(), id)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "food_id", id)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, food)
}
