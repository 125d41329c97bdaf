package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/httpapi"
)

type Reader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListByCafe(ctx context.Context, cafeID string) ([]domain.Order, error)
}

type Handler struct {
	checkout *CheckoutService
	status   *StatusMachine
	reader   Reader
	owners   OwnerDirectory
	logger   *slog.Logger
}

func NewHandler(checkout *CheckoutService, status *StatusMachine, reader Reader, owners OwnerDirectory, logger *slog.Logger) *Handler {
	return &Handler{
		checkout: checkout,
		status:   status,
		reader:   reader,
		owners:   owners,
		logger:   logger,
	}
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)

	order, err := h.checkout.Checkout(r.Context(), userID)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusCreated, order)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)

	orders, err := h.reader.ListByUser(r.Context(), userID)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID)
		return
	}

	h.logger.Info("orders listed", "user_id", userID, "count", len(orders))
	httpapi.WriteJSON(w, h.logger, http.StatusOK, orders)
}

// HandleGet serves an order to the user who placed it or to the owner of a
// café whose items it contains.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)
	id := r.PathValue("id")
	if id == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.reader.GetByID(r.Context(), id)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "order_id", id)
		return
	}

	if order.UserID != userID {
		owned, err := h.owners.CafesOwnedBy(r.Context(), userID)
		if err != nil {
			httpapi.WriteDomainError(w, h.logger, err, "order_id", id)
			return
		}
		if !slices.ContainsFunc(owned, order.Contains) {
			httpapi.WriteDomainError(w, h.logger, fmt.Errorf("order %s: %w", id, domain.ErrForbidden), "user_id", userID)
			return
		}
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, order)
}

// HandleListCafe lists the orders of the café in the caller's auth context,
// each reduced to that café's items.
func (h *Handler) HandleListCafe(w http.ResponseWriter, r *http.Request) {
	userID := httpapi.UserID(r)

	cafeID, err := h.resolveCafe(r.Context(), userID, httpapi.CafeID(r))
	if err != nil {
		if errors.Is(err, errNoCafeContext) {
			httpapi.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		httpapi.WriteDomainError(w, h.logger, err, "user_id", userID)
		return
	}

	orders, err := h.reader.ListByCafe(r.Context(), cafeID)
	if err != nil {
		httpapi.WriteDomainError(w, h.logger, err, "cafe_id", cafeID)
		return
	}

	views := make([]domain.CafeOrder, 0, len(orders))
	for _, order := range orders {
		views = append(views, order.ForCafe(cafeID))
	}

	h.logger.Info("cafe orders listed", "cafe_id", cafeID, "count", len(views))
	httpapi.WriteJSON(w, h.logger, http.StatusOK, views)
}

var errNoCafeContext = errors.New("missing cafe id")

// resolveCafe checks that ownerID runs cafeID. Without an explicit café the
// owner's only café is used.
func (h *Handler) resolveCafe(ctx context.Context, ownerID, cafeID string) (string, error) {
	owned, err := h.owners.CafesOwnedBy(ctx, ownerID)
	if err != nil {
		return "", err
	}

	if cafeID == "" {
		if len(owned) != 1 {
			return "", errNoCafeContext
		}
		return owned[0], nil
	}

	if !slices.Contains(owned, cafeID) {
		return "", fmt.Errorf("user %s does not own cafe %s: %w", ownerID, cafeID, domain.ErrForbidden)
	}
	return cafeID, nil
}

func (h *Handler) HandleMarkReady(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.status.MarkReady)
}

func (h *Handler) HandleUndoReady(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.status.UndoReady)
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.status.Advance)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, orderID, actorID string) (domain.Order, error)) {
	actorID := httpapi.UserID(r)
	id := r.PathValue("id")
	if id == "" {
		httpapi.WriteError(w, h.logger, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := action(r.Context(), id, actorID)
	if err != nil {
		// Only owners get to see the current state of an order they could
		// not change.
		if errors.Is(err, domain.ErrIllegalTransition) {
			httpapi.WriteDomainErrorWith(w, h.logger, err, order, "order_id", id)
			return
		}
		httpapi.WriteDomainError(w, h.logger, err, "order_id", id, "actor_id", actorID)
		return
	}

	httpapi.WriteJSON(w, h.logger, http.StatusOK, order)
}
