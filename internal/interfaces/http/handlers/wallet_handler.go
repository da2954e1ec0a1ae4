package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/internal/interfaces/http/middleware"
	"credit-ledger.backend/internal/interfaces/http/response"
	"credit-ledger.backend/internal/usecases"
)

type walletService interface {
	EnsureWallet(ctx context.Context, userID int64) (*entities.Wallet, error)
	ListOrders(ctx context.Context, userID int64, filter repositories.OrderListFilter, limit, offset int) ([]*entities.Order, int64, error)
	SetPayKey(ctx context.Context, userID int64, newPIN, oldPIN string) error
}

// WalletHandler handles wallet endpoints
type WalletHandler struct {
	walletUsecase walletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletUsecase *usecases.WalletUsecase) *WalletHandler {
	return &WalletHandler{walletUsecase: walletUsecase}
}

// Show returns the caller's wallet, creating it on first access
// GET /api/v1/wallet
func (h *WalletHandler) Show(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	wallet, err := h.walletUsecase.EnsureWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"wallet":    wallet,
		"hasPayKey": wallet.HasPayKey(),
	})
}

// Balance returns a compact balance summary
// GET /api/v1/wallet/balance
func (h *WalletHandler) Balance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	wallet, err := h.walletUsecase.EnsureWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"availableBalance": wallet.AvailableBalance,
		"communityBalance": wallet.CommunityBalance,
		"payScore":         wallet.PayScore,
	})
}

// ListOrders lists the caller's orders, newest first
// GET /api/v1/wallet/orders
func (h *WalletHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	filter := repositories.OrderListFilter(c.DefaultQuery("filter", string(repositories.OrderFilterAll)))
	switch filter {
	case repositories.OrderFilterAll, repositories.OrderFilterIncome, repositories.OrderFilterExpense,
		repositories.OrderFilterTip, repositories.OrderFilterRedEnvelope,
		repositories.OrderFilterProduct, repositories.OrderFilterCommunity:
	default:
		response.Error(c, domainerrors.Validation("unknown order filter"))
		return
	}

	limit, offset := pageParams(c)
	orders, total, err := h.walletUsecase.ListOrders(c.Request.Context(), userID, filter, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	if orders == nil {
		orders = []*entities.Order{}
	}
	response.Paged(c, orders, total)
}

type setPayKeyRequest struct {
	NewPin string `json:"newPin" binding:"required"`
	OldPin string `json:"oldPin"`
}

// SetPayKey sets or changes the payment PIN
// PUT /api/v1/wallet/pay-key
func (h *WalletHandler) SetPayKey(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req setPayKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	if err := h.walletUsecase.SetPayKey(c.Request.Context(), userID, req.NewPin, req.OldPin); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "pay key updated"})
}
