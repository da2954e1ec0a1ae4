package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/interfaces/http/middleware"
	"credit-ledger.backend/internal/interfaces/http/response"
	"credit-ledger.backend/internal/usecases"
)

type disputeService interface {
	ListDisputable(ctx context.Context, userID int64, limit int) ([]*entities.Order, error)
	Create(ctx context.Context, userID int64, orderNo, reason string) (*entities.Dispute, error)
	Refund(ctx context.Context, handlerUserID, disputeID int64, resolution string) error
	Reject(ctx context.Context, handlerUserID, disputeID int64, resolution string) error
	Withdraw(ctx context.Context, initiatorUserID, disputeID int64) error
	ListMine(ctx context.Context, userID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error)
	ListIncoming(ctx context.Context, payeeUserID int64, status entities.DisputeStatus, limit, offset int) ([]*entities.Dispute, int64, error)
}

// DisputeHandler handles dispute endpoints
type DisputeHandler struct {
	disputeUsecase disputeService
}

// NewDisputeHandler creates a new dispute handler
func NewDisputeHandler(disputeUsecase *usecases.DisputeUsecase) *DisputeHandler {
	return &DisputeHandler{disputeUsecase: disputeUsecase}
}

// ListDisputable lists the caller's orders still inside the dispute window
// GET /api/v1/disputes/disputable
func (h *DisputeHandler) ListDisputable(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	limit, _ := pageParams(c)
	orders, err := h.disputeUsecase.ListDisputable(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	if orders == nil {
		orders = []*entities.Order{}
	}
	response.Success(c, http.StatusOK, gin.H{"orders": orders})
}

type createDisputeRequest struct {
	OrderNo string `json:"orderNo" binding:"required"`
	Reason  string `json:"reason" binding:"required,max=500"`
}

// Create opens a dispute on a settled order
// POST /api/v1/disputes
func (h *DisputeHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req createDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	dispute, err := h.disputeUsecase.Create(c.Request.Context(), userID, req.OrderNo, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"dispute": dispute})
}

type resolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"max=500"`
}

// Refund resolves a dispute in the payer's favor
// POST /api/v1/disputes/:id/refund
func (h *DisputeHandler) Refund(c *gin.Context) {
	h.resolve(c, h.disputeUsecase.Refund)
}

// Reject closes a dispute in the payee's favor
// POST /api/v1/disputes/:id/reject
func (h *DisputeHandler) Reject(c *gin.Context) {
	h.resolve(c, h.disputeUsecase.Reject)
}

func (h *DisputeHandler) resolve(c *gin.Context, action func(context.Context, int64, int64, string) error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	disputeID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid dispute id"))
		return
	}

	// the resolution note is optional, so an empty body is fine
	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	if err := action(c.Request.Context(), userID, disputeID, req.Resolution); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "dispute resolved"})
}

// Withdraw lets the initiator retract an open dispute
// POST /api/v1/disputes/:id/withdraw
func (h *DisputeHandler) Withdraw(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	disputeID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid dispute id"))
		return
	}

	if err := h.disputeUsecase.Withdraw(c.Request.Context(), userID, disputeID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "dispute withdrawn"})
}

// ListMine lists disputes the caller opened
// GET /api/v1/disputes
func (h *DisputeHandler) ListMine(c *gin.Context) {
	h.list(c, h.disputeUsecase.ListMine)
}

// ListIncoming lists disputes against the caller as payee
// GET /api/v1/disputes/incoming
func (h *DisputeHandler) ListIncoming(c *gin.Context) {
	h.list(c, h.disputeUsecase.ListIncoming)
}

func (h *DisputeHandler) list(c *gin.Context, source func(context.Context, int64, entities.DisputeStatus, int, int) ([]*entities.Dispute, int64, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	status := entities.DisputeStatus(c.Query("status"))
	limit, offset := pageParams(c)

	disputes, total, err := source(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	if disputes == nil {
		disputes = []*entities.Dispute{}
	}
	response.Paged(c, disputes, total)
}
