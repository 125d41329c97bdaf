package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(ctx context.Context, orderID, courierID string) (domain.Order, error) {
	args := m.Called(ctx, orderID, courierID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func TestHandler_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	payload := []byte(`{"order_id":"o1","courier_id":"k9","delivered_at":"2026-03-01T12:00:00Z"}`)

	tests := []struct {
		name       string
		payload    []byte
		deliverErr error
		wantCall   bool
		wantErr    bool
	}{
		{name: "delivers", payload: payload, wantCall: true},
		{name: "unknown order is skipped", payload: payload, deliverErr: fmt.Errorf("repo.GetByID: %w", domain.ErrNotFound), wantCall: true},
		{name: "illegal transition is skipped", payload: payload, deliverErr: fmt.Errorf("order o1: %w", domain.ErrIllegalTransition), wantCall: true},
		{name: "infrastructure failure is retried", payload: payload, deliverErr: errors.New("connection refused"), wantCall: true, wantErr: true},
		{name: "malformed payload is dropped", payload: []byte(`{`)},
		{name: "missing order id is dropped", payload: []byte(`{"courier_id":"k9"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliverer := &mockDeliverer{}
			if tt.wantCall {
				deliverer.On("Deliver", mock.Anything, "o1", "k9").
					Return(domain.Order{ID: "o1", Status: domain.OrderStatusReady}, tt.deliverErr).Once()
			}

			err := NewHandler(deliverer, logger).Handle(context.Background(), tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			deliverer.AssertExpectations(t)
			if !tt.wantCall {
				deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
