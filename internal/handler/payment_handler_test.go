package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-api/internal/model"
	"marketplace-api/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPaymentHandler_CreateCheckoutSession(t *testing.T) {
	caller := model.Identity{UserID: uuid.New(), Role: model.RoleUser}
	orderID := uuid.New()

	session := &payment.CheckoutSession{
		SessionID: "cs_test_123",
		URL:       "https://checkout.example.com/c/pay/cs_test_123",
	}

	validBody, err := json.Marshal(model.CheckoutSessionRequest{OrderID: orderID})
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           []byte
		mockReturn     *payment.CheckoutSession
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "success",
			body:           validBody,
			mockReturn:     session,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "malformed JSON",
			body:           []byte(`{"order_id"`),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing order id",
			body:           []byte(`{}`),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "order not found",
			body:           validBody,
			mockError:      model.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "provider down",
			body:           validBody,
			mockError:      &payment.ProviderError{StatusCode: 503, Message: "service unavailable"},
			expectedStatus: http.StatusBadGateway,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPaymentService)
			if tt.expectService {
				mockService.On("CreateCheckoutSession", mock.Anything, caller, orderID).
					Return(tt.mockReturn, tt.mockError)
			}

			h := NewPaymentHandler(mockService, zerolog.Nop())
			rec := httptest.NewRecorder()
			h.CreateCheckoutSession(rec, authedRequest(http.MethodPost, "/api/payment/create-checkout-session", tt.body, caller))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.mockReturn != nil {
				var got payment.CheckoutSession
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, session.URL, got.URL)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Webhook(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)

	t.Run("acknowledges verified event", func(t *testing.T) {
		mockService := new(MockPaymentService)
		mockService.On("HandleWebhook", mock.Anything, payload, "t=1,v1=abc").Return(nil)

		h := NewPaymentHandler(mockService, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(payload))
		req.Header.Set(payment.SignatureHeader, "t=1,v1=abc")
		rec := httptest.NewRecorder()

		h.Webhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received": true}`, rec.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("rejects bad signature", func(t *testing.T) {
		mockService := new(MockPaymentService)
		mockService.On("HandleWebhook", mock.Anything, payload, "t=1,v1=bad").
			Return(model.NewDomainError(model.ErrCodeInvalidSignature, "signature mismatch"))

		h := NewPaymentHandler(mockService, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(payload))
		req.Header.Set(payment.SignatureHeader, "t=1,v1=bad")
		rec := httptest.NewRecorder()

		h.Webhook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeInvalidSignature, resp.Error)
	})

	t.Run("passes through a missing header for verification", func(t *testing.T) {
		mockService := new(MockPaymentService)
		mockService.On("HandleWebhook", mock.Anything, payload, "").
			Return(model.NewDomainError(model.ErrCodeInvalidSignature, "missing signature header"))

		h := NewPaymentHandler(mockService, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(payload))
		rec := httptest.NewRecorder()

		h.Webhook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
