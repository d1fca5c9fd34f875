package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/payment"
)

// WebhookSecretHeader carries the shared secret on payment callbacks.
const WebhookSecretHeader = "X-Webhook-Secret"

// PaymentHandler drives M-PESA checkout sessions.  Callback is nil unless
// the callback gateway is configured.
type PaymentHandler struct {
	Sessions      *payment.Manager
	Callback      *payment.CallbackGateway
	WebhookSecret string
}

func NewPaymentHandler(m *payment.Manager, cb *payment.CallbackGateway, secret string) *PaymentHandler {
	return &PaymentHandler{Sessions: m, Callback: cb, WebhookSecret: secret}
}

// session loads the session in :id and checks the caller owns it.
func (h *PaymentHandler) session(c echo.Context) (*payment.Session, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	if s.Owner() != uid {
		// indistinguishable from a missing session
		return nil, payment.ErrSessionNotFound
	}
	return s, nil
}

// step runs fn against the caller's session and writes the snapshot.
func (h *PaymentHandler) step(c echo.Context, fn func(*payment.Session) (payment.Snapshot, error)) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := fn(s)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Get returns the session snapshot.  Clients poll it while processing.
func (h *PaymentHandler) Get(c echo.Context) error {
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.Snapshot(), nil })
}

type phoneReq struct {
	Phone string `json:"phone"`
}

// SetPhone stores the normalized phone number.
func (h *PaymentHandler) SetPhone(c echo.Context) error {
	var req phoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.SetPhone(req.Phone) })
}

// Submit sends the STK push.
func (h *PaymentHandler) Submit(c echo.Context) error {
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.SubmitPhone() })
}

type pinReq struct {
	PIN string `json:"pin"`
}

// EnterPIN replaces the entered PIN.
func (h *PaymentHandler) EnterPIN(c echo.Context) error {
	var req pinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.EnterPIN(req.PIN) })
}

type keyReq struct {
	Key string `json:"key"`
}

// PressKey applies one keypad press.
func (h *PaymentHandler) PressKey(c echo.Context) error {
	var req keyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.PressKey(req.Key) })
}

// Retry returns a failed session to the phone step.
func (h *PaymentHandler) Retry(c echo.Context) error {
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.Retry() })
}

// Reset clears the session as if the payment dialog was reopened.
func (h *PaymentHandler) Reset(c echo.Context) error {
	return h.step(c, func(s *payment.Session) (payment.Snapshot, error) { return s.Reset(), nil })
}

// Close abandons the session.
func (h *PaymentHandler) Close(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Sessions.Close(s.ID()); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type callbackReq struct {
	SessionID string `json:"sessionId"`
	Success   bool   `json:"success"`
}

// MpesaCallback records the gateway outcome for a pending session.
func (h *PaymentHandler) MpesaCallback(c echo.Context) error {
	if h.Callback == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "callback gateway disabled"})
	}
	got := c.Request().Header.Get(WebhookSecretHeader)
	if h.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
		return unauthorized(c)
	}
	var req callbackReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sessionId required"})
	}
	if err := h.Callback.Complete(strings.TrimSpace(req.SessionID), req.Success); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
