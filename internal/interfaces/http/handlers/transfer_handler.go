package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/interfaces/http/middleware"
	"credit-ledger.backend/internal/interfaces/http/response"
	"credit-ledger.backend/internal/usecases"
)

type transferService interface {
	Transfer(ctx context.Context, fromUserID int64, input *usecases.TransferInput) (*entities.Order, error)
	SearchRecipients(ctx context.Context, keyword string, limit int) ([]*gateways.ForumUser, error)
}

// TransferHandler handles transfer endpoints
type TransferHandler struct {
	transferUsecase transferService
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transferUsecase *usecases.TransferUsecase) *TransferHandler {
	return &TransferHandler{transferUsecase: transferUsecase}
}

type transferRequest struct {
	ToUsername string `json:"toUsername" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Pin        string `json:"pin" binding:"required"`
	Remark     string `json:"remark" binding:"max=200"`
}

// Transfer moves credits to another forum user
// POST /api/v1/transfers
func (h *TransferHandler) Transfer(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid amount"))
		return
	}

	order, err := h.transferUsecase.Transfer(c.Request.Context(), userID, &usecases.TransferInput{
		ToUsername: req.ToUsername,
		Amount:     amount,
		PIN:        req.Pin,
		Remark:     req.Remark,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"order": order})
}

// SearchRecipients finds forum users by username prefix
// GET /api/v1/users/search
func (h *TransferHandler) SearchRecipients(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	limit, _ := pageParams(c)
	users, err := h.transferUsecase.SearchRecipients(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	if users == nil {
		users = []*gateways.ForumUser{}
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}
