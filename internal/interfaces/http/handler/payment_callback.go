package handler

import (
	"github.com/gin-gonic/gin"

	orderapp "github.com/toystore/backend/internal/application/order"
	"github.com/toystore/backend/internal/interfaces/http/middleware"
)

// PaymentCallbackHandler handles payment gateway notification endpoints.
// These are called by the external gateway, not by authenticated users;
// duplicate notifications for the same reference are acknowledged without
// reprocessing.
type PaymentCallbackHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(orderService *orderapp.OrderService) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		orderService: orderService,
	}
}

// HandlePaymentResult handles POST /callbacks/payment
func (h *PaymentCallbackHandler) HandlePaymentResult(c *gin.Context) {
	var req orderapp.PaymentResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.orderService.HandlePaymentResult(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
