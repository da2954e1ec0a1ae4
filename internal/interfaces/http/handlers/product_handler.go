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

type productService interface {
	GetProduct(ctx context.Context, userID, productID int64) (*entities.Product, error)
	Buy(ctx context.Context, userID, productID int64, pin string) (*usecases.PurchaseResult, error)
}

// ProductHandler handles the buyer-facing product endpoints
type ProductHandler struct {
	productUsecase productService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productUsecase *usecases.ProductUsecase) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase}
}

// Show returns a product page
// GET /api/v1/products/:id
func (h *ProductHandler) Show(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	productID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid product id"))
		return
	}

	product, err := h.productUsecase.GetProduct(c.Request.Context(), userID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"product": product})
}

type buyRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// Buy purchases a product with credits
// POST /api/v1/products/:id/buy
func (h *ProductHandler) Buy(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	productID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, domainerrors.Validation("invalid product id"))
		return
	}

	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	result, err := h.productUsecase.Buy(c.Request.Context(), userID, productID, req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}
