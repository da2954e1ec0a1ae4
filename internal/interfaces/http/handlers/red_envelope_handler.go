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

type redEnvelopeService interface {
	Create(ctx context.Context, senderID int64, input *usecases.CreateEnvelopeInput) (*entities.RedEnvelope, error)
	Claim(ctx context.Context, envelopeID, userID int64) (*entities.RedEnvelopeClaim, error)
	Show(ctx context.Context, envelopeID, viewerID int64) (*usecases.EnvelopeDetail, error)
	ListSent(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelope, int64, error)
	ListClaimed(ctx context.Context, userID int64, limit, offset int) ([]*entities.RedEnvelopeClaim, int64, error)
}

// RedEnvelopeHandler handles red envelope endpoints
type RedEnvelopeHandler struct {
	envelopeUsecase redEnvelopeService
}

// NewRedEnvelopeHandler creates a new red envelope handler
func NewRedEnvelopeHandler(envelopeUsecase *usecases.RedEnvelopeUsecase) *RedEnvelopeHandler {
	return &RedEnvelopeHandler{envelopeUsecase: envelopeUsecase}
}

type createEnvelopeRequest struct {
	Type         string `json:"type" binding:"required"`
	TotalAmount  string `json:"totalAmount" binding:"required"`
	TotalCount   int    `json:"totalCount" binding:"required"`
	Message      string `json:"message" binding:"max=200"`
	Pin          string `json:"pin" binding:"required"`
	TopicID      *int64 `json:"topicId"`
	PostID       *int64 `json:"postId"`
	RequireReply bool   `json:"requireReply"`
}

// Create opens a new red envelope
// POST /api/v1/red-envelopes
func (h *RedEnvelopeHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req createEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid amount"))
		return
	}

	envelope, err := h.envelopeUsecase.Create(c.Request.Context(), userID, &usecases.CreateEnvelopeInput{
		Type:         entities.EnvelopeType(req.Type),
		TotalAmount:  amount,
		TotalCount:   req.TotalCount,
		Message:      req.Message,
		PIN:          req.Pin,
		TopicID:      req.TopicID,
		PostID:       req.PostID,
		RequireReply: req.RequireReply,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"envelope": envelope})
}

// Claim grabs a share of an open envelope
// POST /api/v1/red-envelopes/:id/claim
func (h *RedEnvelopeHandler) Claim(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	envelopeID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid envelope id"))
		return
	}

	claim, err := h.envelopeUsecase.Claim(c.Request.Context(), envelopeID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"claim": claim})
}

// Show returns an envelope with its claims
// GET /api/v1/red-envelopes/:id
func (h *RedEnvelopeHandler) Show(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	envelopeID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid envelope id"))
		return
	}

	detail, err := h.envelopeUsecase.Show(c.Request.Context(), envelopeID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// ListSent lists envelopes the caller created
// GET /api/v1/red-envelopes/sent
func (h *RedEnvelopeHandler) ListSent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	limit, offset := pageParams(c)
	envelopes, total, err := h.envelopeUsecase.ListSent(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	if envelopes == nil {
		envelopes = []*entities.RedEnvelope{}
	}
	response.Paged(c, envelopes, total)
}

// ListClaimed lists claims the caller received
// GET /api/v1/red-envelopes/claimed
func (h *RedEnvelopeHandler) ListClaimed(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	limit, offset := pageParams(c)
	claims, total, err := h.envelopeUsecase.ListClaimed(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	if claims == nil {
		claims = []*entities.RedEnvelopeClaim{}
	}
	response.Paged(c, claims, total)
}
