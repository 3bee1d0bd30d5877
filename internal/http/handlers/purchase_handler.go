// Checkout HTTP handlers.
//
// This file exposes REST endpoints for the purchase flow:
//   - POST /orders              (open a provider order)
//   - POST /orders/{id}/capture (capture payment and fulfill)
//
// Idempotency: the order id itself is the idempotency token for capture. A
// repeat capture of a completed order returns the recorded outcome and sets
// `Idempotency-Replayed: true`; the provider is never charged twice. The
// optional Idempotency-Key header is validated by middleware and marks
// detected replays for rate-limit bypass, but replay detection works without
// it.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upstarthq/idealab-backend/internal/http/middleware"
	"github.com/upstarthq/idealab-backend/internal/services"
)

//
// DTOs
//

// CreateOrderRequest is the JSON payload for opening a checkout order.
type CreateOrderRequest struct {
	// Amount is the charge in minor units (cents). Zero uses the configured
	// default price.
	Amount int `json:"amount" example:"2900"`
	// Currency is a 3-letter ISO code. Empty uses the configured default.
	Currency string `json:"currency" example:"USD"`
}

// CreateOrderResponse carries the provider order id the client approves.
type CreateOrderResponse struct {
	OrderID string `json:"order_id" example:"5O190127TN364715T"`
}

// CaptureRequest is the JSON payload for capturing an approved order.
type CaptureRequest struct {
	// IdeaID optionally claims the daily idea being bought alongside the
	// pro upgrade.
	IdeaID *string `json:"idea_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// CaptureResponse is the JSON envelope for a finished capture.
type CaptureResponse struct {
	OrderID string `json:"order_id"`
	// Capture is the provider's raw capture receipt.
	Capture json.RawMessage `json:"capture"`
	// NewIdeaID is the id of the idea cloned into the buyer's collection.
	NewIdeaID *string `json:"new_idea_id,omitempty"`
}

//
// Handlers
//

// CreateOrder godoc
// @ID          createOrder
// @Summary     Open a checkout order
// @Description Creates a provider order for the pro upgrade and returns its id for client-side approval.
// @Tags        Checkout
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateOrderRequest  false  "Order options"
//
// @Success     200  {object}  handlers.CreateOrderResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse "Provider error"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Amount < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount must not be negative")
		return
	}

	orderID, err := h.purchaseSvc.CreateOrder(c.Request.Context(), userID(c), req.Amount, req.Currency)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeOrderFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, CreateOrderResponse{OrderID: orderID})
}

// CaptureOrder godoc
// @ID          captureOrder
// @Summary     Capture an approved order
// @Description Captures payment for the order, upgrades the buyer to pro, and (when idea_id is given) moves the daily idea into the buyer's collection. Capturing the same order again replays the recorded outcome.
// @Tags        Checkout
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"        example(user123)
// @Param       Idempotency-Key  header  string  false "Client retry token"           example(retry-1a2b)
// @Param       id               path    string  true  "Provider order ID"            example(5O190127TN364715T)
// @Param       body             body    handlers.CaptureRequest  false  "Capture options"
//
// @Success     200  {object}  handlers.CaptureResponse
// @Header      200  {string}  Idempotency-Replayed  "true when a recorded outcome was replayed"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request or idea already sold"
// @Failure     402  {object}  handlers.ErrorResponse "Capture declined"
// @Failure     404  {object}  handlers.ErrorResponse "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse "Capture in progress"
// @Failure     502  {object}  handlers.ErrorResponse "Provider error"
// @Router      /orders/{id}/capture [post]
func (h *Handlers) CaptureOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id required")
		return
	}

	var req CaptureRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	res, err := h.purchaseSvc.Capture(c.Request.Context(), userID(c), orderID, req.IdeaID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
		case errors.Is(err, services.ErrIdeaSold):
			middleware.ObserveCapture("idea_sold")
			fail(c, http.StatusBadRequest, ErrCodeIdeaSold, "idea is sold or no longer available")
		case errors.Is(err, services.ErrCaptureDeclined):
			middleware.ObserveCapture("declined")
			fail(c, http.StatusPaymentRequired, ErrCodeCaptureDeclined, "payment was declined")
		case errors.Is(err, services.ErrCaptureInProgress):
			fail(c, http.StatusConflict, ErrCodeCaptureInProgress, "capture already in progress")
		default:
			middleware.ObserveCapture("error")
			fail(c, http.StatusBadGateway, ErrCodeCaptureFailed, err.Error())
		}
		return
	}

	if res.Replayed {
		middleware.ObserveCapture("replayed")
		c.Header("Idempotency-Replayed", "true")
	} else {
		middleware.ObserveCapture("completed")
	}

	ok(c, http.StatusOK, CaptureResponse{
		OrderID:   res.OrderID,
		Capture:   res.Receipt,
		NewIdeaID: res.NewIdeaID,
	})
}
