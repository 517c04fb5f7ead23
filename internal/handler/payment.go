package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/service"
)

// PaymentHandler serves payment initialization, verification and
// the per-student payment history.
type PaymentHandler struct {
	Payments    *service.PaymentService
	FrontendURL string
}

// PaymentView is the public shape of a payment attempt.
type PaymentView struct {
	ID         uint64     `json:"id"`
	Reference  string     `json:"reference"`
	AmountKobo int64      `json:"amount_kobo"`
	Status     string     `json:"status"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func paymentView(p *model.Payment) PaymentView {
	return PaymentView{
		ID:         p.ID,
		Reference:  p.Reference,
		AmountKobo: p.AmountKobo,
		Status:     string(p.Status),
		PaidAt:     p.PaidAt,
		CreatedAt:  p.CreatedAt,
	}
}

type initializeRequest struct {
	MatricNumber string `json:"matric_number"`
	AmountKobo   int64  `json:"amount_kobo"`
}

// Initialize opens a hosted-payment session for the student's chosen
// amount and returns the gateway checkout URL. The route sits behind
// the token-bucket rate limiter.
func (h *PaymentHandler) Initialize(c echo.Context) error {
	var req initializeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MatricNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matric_number is required"})
	}

	callback := h.FrontendURL + "/payment/callback"
	res, err := h.Payments.Initialize(c.Request().Context(), req.MatricNumber, req.AmountKobo, callback)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Verify reconciles a reference against the gateway's authoritative
// state and returns the payment. Clients poll this after checkout
// redirects; it is safe to call any number of times.
func (h *PaymentHandler) Verify(c echo.Context) error {
	reference := c.QueryParam("reference")
	if reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference is required"})
	}

	p, err := h.Payments.Verify(c.Request().Context(), reference)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReference) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown reference"})
		}
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, paymentView(p))
}

// History lists a student's payment attempts, newest first.
func (h *PaymentHandler) History(c echo.Context) error {
	st, payments, err := h.Payments.History(c.Request().Context(), c.Param("matricNumber"))
	if err != nil {
		return domainError(c, err)
	}
	out := make([]PaymentView, 0, len(payments))
	for i := range payments {
		out = append(out, paymentView(&payments[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"matric_number": st.MatricNumber,
		"items":         out,
	})
}
