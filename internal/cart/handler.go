package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/httpapi"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

type addRequest struct {
	FoodID   string       `json:"foodId"`
	Quantity *json.Number `json:"quantity"`
}

type quantityRequest struct {
	Quantity *json.Number `json:"quantity"`
}

type cartResponse struct {
	Lines []domain.CartEntry `json:"lines"`
	Total decimal.Decimal    `json:"total"`
	Count int                `json:"count"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FoodID == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing food id")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		q, err := parseQuantity(*req.Quantity)
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, err, "user_id", userID)
			return
		}
		quantity = q
	}

	line, err := h.store.Add(r.Context(), userID, req.FoodID, quantity)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID, "food_id", req.FoodID)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusCreated, line)
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)
	lineID := r.PathValue("lineId")
	if lineID == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing cart line id")
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == nil {
		httpapi.WriteDomainError(w, h.logger, fmt.Errorf("missing quantity: %w", domain.ErrInvalidQuantity))
		return
	}

	quantity, err := parseQuantity(*req.Quantity)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID, "line_id", lineID)
		return
	}

	line, err := h.store.SetQuantity(r.Context(), userID, lineID, quantity)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID, "line_id", lineID)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, line)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)
	lineID := r.PathValue("lineId")
	if lineID == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing cart line id")
		return
	}

	if err := h.store.Remove(r.Context(), userID, lineID); err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID, "line_id", lineID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)

	cart, err := h.store.List(r.Context(), userID)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, cartResponse{
		Lines: cart.Lines,
		Total: cart.Total,
		Count: cart.Count(),
	})
}

// parseQuantity rejects fractional and out-of-range quantities instead of
// truncating them.
func parseQuantity(n json.Number) (int, error) {
	q, err := n.Int64()
	if err != nil || q < 1 || q > domain.MaxQuantity {
		return 0, fmt.Errorf("quantity %q: %w", n.String(), domain.ErrInvalidQuantity)
	}
	return int(q), nil
}
