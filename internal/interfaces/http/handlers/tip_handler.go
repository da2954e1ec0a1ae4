package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/interfaces/http/middleware"
	"credit-ledger.backend/internal/interfaces/http/response"
	"credit-ledger.backend/internal/usecases"
)

type tipService interface {
	Tip(ctx context.Context, fromUserID int64, input *usecases.TipInput) (*entities.Order, error)
	PostTips(ctx context.Context, postID int64) ([]*entities.Order, error)
}

// TipHandler handles tipping endpoints
type TipHandler struct {
	tipUsecase tipService
}

// NewTipHandler creates a new tip handler
func NewTipHandler(tipUsecase *usecases.TipUsecase) *TipHandler {
	return &TipHandler{tipUsecase: tipUsecase}
}

type tipRequest struct {
	PostID       int64  `json:"postId" binding:"required"`
	AuthorUserID int64  `json:"authorUserId" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	Pin          string `json:"pin" binding:"required"`
	Message      string `json:"message" binding:"max=200"`
}

// Tip sends credits to a post author
// POST /api/v1/tips
func (h *TipHandler) Tip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req tipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid amount"))
		return
	}

	order, err := h.tipUsecase.Tip(c.Request.Context(), userID, &usecases.TipInput{
		PostID:       req.PostID,
		AuthorUserID: req.AuthorUserID,
		Amount:       amount,
		PIN:          req.Pin,
		Message:      req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"order": order})
}

// PostTips lists the tips a post has received
// GET /api/v1/posts/:id/tips
func (h *TipHandler) PostTips(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid post id"))
		return
	}

	tips, err := h.tipUsecase.PostTips(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if tips == nil {
		tips = []*entities.Order{}
	}
	response.Success(c, http.StatusOK, gin.H{"tips": tips})
}
