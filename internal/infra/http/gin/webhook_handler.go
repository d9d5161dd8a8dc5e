package ginserver

import (
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	paymentsapp "homestay/internal/app/handlers/payments"
	stripeprovider "homestay/internal/infra/payments/stripe"
)

type WebhookHandler struct {
	Commands      commands.Bus
	WebhookSecret string
	Logger        *slog.Logger
}

// Stripe receives provider notifications. The raw body is verified before
// any parsing; a failed signature is a 400 with zero state changes. Once
// verified, application errors are 500 so the provider redelivers.
func (h WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "upstream_unavailable", "could not read request body")
		return
	}

	event, err := stripeprovider.VerifyAndDecode(payload, c.GetHeader("Stripe-Signature"), h.WebhookSecret)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("webhook signature rejected", "error", err)
		}
		writeError(c, http.StatusBadRequest, "signature_invalid", "webhook signature verification failed")
		return
	}

	cmd := paymentsapp.ReconcileEventCommand{Event: event}
	result, err := commands.Dispatch[paymentsapp.ReconcileEventCommand, *paymentsapp.ReconcileResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("webhook reconciliation failed", "event_id", event.EventID(), "error", err)
		}
		writeError(c, http.StatusInternalServerError, "internal_error", "event processing failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ WebhookHTTP = WebhookHandler{}
