package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/toystore/backend/internal/application/inventory"
	"github.com/toystore/backend/internal/interfaces/http/middleware"
)

// InventoryHandler handles stock ledger and reservation API endpoints
type InventoryHandler struct {
	BaseHandler
	ledgerService      *inventoryapp.StockLedgerService
	reservationService *inventoryapp.ReservationService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	ledgerService *inventoryapp.StockLedgerService,
	reservationService *inventoryapp.ReservationService,
) *InventoryHandler {
	return &InventoryHandler{
		ledgerService:      ledgerService,
		reservationService: reservationService,
	}
}

// AdjustStock handles POST /admin/inventory/adjustments
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	movement, err := h.ledgerService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, movement)
}

// ListMovements handles GET /admin/inventory/products/:id/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if reason := c.Query("reason"); reason != "" {
		filter.Filters["reason"] = reason
	}

	result, err := h.ledgerService.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Reconcile handles GET /admin/inventory/products/:id/reconciliation.
// Compares the movement ledger sum against the stock counter.
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	result, err := h.ledgerService.Reconcile(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Reserve handles POST /reservations
func (h *InventoryHandler) Reserve(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req inventoryapp.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	reservation, err := h.reservationService.Reserve(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, reservation)
}

// ReleaseReservation handles DELETE /reservations/:id
func (h *InventoryHandler) ReleaseReservation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation ID")
		return
	}

	if err := h.reservationService.Release(c.Request.Context(), userID, reservationID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListReservations handles GET /reservations for the caller's active holds
func (h *InventoryHandler) ListReservations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reservations, err := h.reservationService.ListActive(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, reservations)
}
