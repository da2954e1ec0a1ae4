package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/interfaces/http/middleware"
	"credit-ledger.backend/internal/interfaces/http/response"
	"credit-ledger.backend/internal/usecases"
)

type paymentService interface {
	Process(ctx context.Context, input usecases.ProcessInput) (*entities.PaymentTransaction, error)
	Query(ctx context.Context, clientID, transactionID, signature string) (*entities.PaymentTransaction, error)
	GetPayPage(ctx context.Context, transactionID string) (*usecases.PayPageView, error)
	Confirm(ctx context.Context, userID int64, transactionID, pin string) (*entities.PaymentTransaction, error)
}

// PaymentHandler handles the signed JSON merchant protocol
type PaymentHandler struct {
	paymentUsecase paymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentUsecase *usecases.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase}
}

// Process opens a payment intent for a merchant
// POST /api/v1/payments
func (h *PaymentHandler) Process(c *gin.Context) {
	var input usecases.ProcessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	txn, err := h.paymentUsecase.Process(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"transaction": txn,
		"payUrl":      "/pay-page/" + txn.TransactionID,
	})
}

// Query returns a transaction to its owning merchant
// GET /api/v1/payments/:transactionId
func (h *PaymentHandler) Query(c *gin.Context) {
	txn, err := h.paymentUsecase.Query(c.Request.Context(),
		c.Query("clientId"), c.Param("transactionId"), c.Query("signature"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": txn})
}

// GetPayPage loads the cashier view of a payable transaction
// GET /api/v1/payments/:transactionId/pay-page
func (h *PaymentHandler) GetPayPage(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	view, err := h.paymentUsecase.GetPayPage(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

type confirmPaymentRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// Confirm settles a pending transaction as the authenticated payer
// POST /api/v1/payments/:transactionId/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	txn, err := h.paymentUsecase.Confirm(c.Request.Context(), userID, c.Param("transactionId"), req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": txn})
}
