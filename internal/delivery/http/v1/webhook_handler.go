package v1

import (
	"encoding/json"
	"io"
	"net/http"

	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/logger"
	"exec-marketplace-backend/pkg/webhook"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Payment-Signature"

type WebhookHandler struct {
	disclosureUC domain.DisclosureUsecase
	verifier     *webhook.Verifier
}

func NewWebhookHandler(public *gin.RouterGroup, disclosureUC domain.DisclosureUsecase, verifier *webhook.Verifier) {
	handler := &WebhookHandler{disclosureUC: disclosureUC, verifier: verifier}
	public.POST("/webhooks/payment", handler.PaymentEvent)
}

type paymentEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	PaymentRef string `json:"payment_ref"`
}

// PaymentEvent handles asynchronous confirmations from the payment
// processor. The signature is verified against the raw body before anything
// else happens; unverified events are rejected with no state change.
func (h *WebhookHandler) PaymentEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Unreadable body", nil)
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(signatureHeader)); err != nil {
		logger.Log.Warn("rejected webhook with bad signature", "ip", c.ClientIP())
		response.Error(c, http.StatusUnauthorized, "Invalid signature", nil)
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil || event.PaymentRef == "" {
		response.Error(c, http.StatusBadRequest, "Malformed event", nil)
		return
	}

	switch event.Type {
	case "payment.confirmed":
		entitlement, err := h.disclosureUC.ConfirmPayment(c.Request.Context(), event.PaymentRef)
		if err != nil {
			c.Error(err)
			return
		}
		logger.Log.Info("payment confirmed", "event_id", event.ID, "payment_ref", event.PaymentRef)
		response.Success(c, http.StatusOK, "Payment confirmed", entitlement)
	default:
		// Unknown event types are acknowledged so the processor stops
		// redelivering them.
		response.Success(c, http.StatusOK, "Event ignored", nil)
	}
}
