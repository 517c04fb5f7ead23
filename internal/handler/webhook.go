package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ulesfyw/fyw-pay/internal/gateway"
	"github.com/ulesfyw/fyw-pay/internal/service"
)

// WebhookHandler receives asynchronous gateway notifications. A bad
// signature answers 401; everything else answers 200 so the gateway
// stops redelivering. Settlement failures are logged and retried via
// the gateway's own redelivery, which the dedup layer makes safe.
type WebhookHandler struct {
	Payments              *service.PaymentService
	PaystackSecretKey     string
	FlutterwaveSecretHash string
}

// Paystack handles POST notifications signed with HMAC-SHA512 of the
// raw body in the x-paystack-signature header.
func (h *WebhookHandler) Paystack(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	if !gateway.VerifyPaystackSignature(body, c.Request().Header.Get("x-paystack-signature"), h.PaystackSecretKey) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	n, err := gateway.ParsePaystackNotice(body)
	if err != nil {
		// Authenticated but malformed; drop it, a retry would not help.
		c.Logger().Warnf("paystack webhook: malformed payload: %v", err)
		return c.NoContent(http.StatusOK)
	}
	if err := h.Payments.HandleWebhook(c.Request().Context(), n); err != nil {
		c.Logger().Errorf("paystack webhook: reconcile %s: %v", n.Reference, err)
	}
	return c.NoContent(http.StatusOK)
}

// Flutterwave handles POST notifications authenticated by the static
// verif-hash header.
func (h *WebhookHandler) Flutterwave(c echo.Context) error {
	if !gateway.VerifyFlutterwaveSignature(c.Request().Header.Get("verif-hash"), h.FlutterwaveSecretHash) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	n, err := gateway.ParseFlutterwaveNotice(body)
	if err != nil {
		c.Logger().Warnf("flutterwave webhook: malformed payload: %v", err)
		return c.NoContent(http.StatusOK)
	}
	if err := h.Payments.HandleWebhook(c.Request().Context(), n); err != nil {
		c.Logger().Errorf("flutterwave webhook: reconcile %s: %v", n.Reference, err)
	}
	return c.NoContent(http.StatusOK)
}
