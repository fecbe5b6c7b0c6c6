package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/models"
	"github.com/magabrotheeeer/finletter/internal/paymentprovider"
	billingservice "github.com/magabrotheeeer/finletter/internal/services/billing"
)

type BillingServiceMock struct {
	mock.Mock
}

func (m *BillingServiceMock) Checkout(ctx context.Context, session *models.Session, plan models.Plan,
	cycle models.BillingCycle) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, session, plan, cycle)
	cs, _ := args.Get(0).(*paymentprovider.CheckoutSession)
	return cs, args.Error(1)
}

func TestCheckoutHandler_ServeHTTP(t *testing.T) {
	reader := &models.Session{UserUID: "u1", Email: "u1@example.com", Role: models.RoleUser, Plan: models.PlanFree}

	tests := []struct {
		name           string
		session        *models.Session
		body           string
		mockResp       *paymentprovider.CheckoutSession
		mockErr        error
		expectCall     bool
		wantStatusCode int
	}{
		{
			name:           "premium monthly",
			session:        reader,
			body:           `{"plan":"PREMIUM","cycle":"MONTHLY"}`,
			mockResp:       &paymentprovider.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"},
			expectCall:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "free plan is not sold",
			session:        reader,
			body:           `{"plan":"FREE","cycle":"MONTHLY"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "уже подписан",
			session:        reader,
			body:           `{"plan":"PREMIUM","cycle":"YEARLY"}`,
			mockErr:        fmt.Errorf("billing.Checkout: %w", billingservice.ErrAlreadySubscribed),
			expectCall:     true,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "price not configured",
			session:        reader,
			body:           `{"plan":"ENTERPRISE","cycle":"YEARLY"}`,
			mockErr:        fmt.Errorf("paymentprovider.CreateCheckout: %w", paymentprovider.ErrUnknownPrice),
			expectCall:     true,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "no session",
			body:           `{"plan":"PREMIUM","cycle":"MONTHLY"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(BillingServiceMock)
			if tt.expectCall {
				svc.On("Checkout", mock.Anything, tt.session, mock.Anything, mock.Anything).Return(tt.mockResp, tt.mockErr).Once()
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", bytes.NewBufferString(tt.body))
			if tt.session != nil {
				req = req.WithContext(middlewarectx.WithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.mockResp != nil {
				var got map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, tt.mockResp.URL, got["data"].(map[string]any)["url"])
			}
			svc.AssertExpectations(t)
		})
	}
}
