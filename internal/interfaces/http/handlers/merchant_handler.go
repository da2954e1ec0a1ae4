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

type merchantService interface {
	CreateApp(ctx context.Context, userID int64, input usecases.AppInput) (*entities.MerchantApp, error)
	ListApps(ctx context.Context, userID int64) ([]*entities.MerchantApp, error)
	GetApp(ctx context.Context, userID, appID int64) (*entities.MerchantApp, error)
	UpdateApp(ctx context.Context, userID, appID int64, input usecases.AppInput) (*entities.MerchantApp, error)
	SetAppActive(ctx context.Context, userID, appID int64, active bool) error
	ResetCredentials(ctx context.Context, userID, appID int64) (*entities.MerchantApp, error)

	CreateProduct(ctx context.Context, userID, appID int64, input usecases.ProductInput) (*entities.Product, error)
	ListProducts(ctx context.Context, userID, appID int64) ([]*entities.Product, error)
	UpdateProduct(ctx context.Context, userID, productID int64, input usecases.ProductInput) (*entities.Product, error)
	SetProductStatus(ctx context.Context, userID, productID int64, status entities.ProductStatus) error
	DeleteProduct(ctx context.Context, userID, productID int64) error
	AddCardKeys(ctx context.Context, userID, productID int64, rawKeys []string) (int64, error)
	GetProductStats(ctx context.Context, userID, productID int64) (*usecases.ProductStats, error)
}

// MerchantHandler handles the merchant console endpoints
type MerchantHandler struct {
	merchantUsecase merchantService
}

// NewMerchantHandler creates a new merchant handler
func NewMerchantHandler(merchantUsecase *usecases.MerchantUsecase) *MerchantHandler {
	return &MerchantHandler{merchantUsecase: merchantUsecase}
}

// CreateApp registers a new merchant app
// POST /api/v1/merchant/apps
func (h *MerchantHandler) CreateApp(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var input usecases.AppInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	app, err := h.merchantUsecase.CreateApp(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"app": app})
}

// ListApps lists the caller's merchant apps
// GET /api/v1/merchant/apps
func (h *MerchantHandler) ListApps(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	apps, err := h.merchantUsecase.ListApps(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if apps == nil {
		apps = []*entities.MerchantApp{}
	}
	response.Success(c, http.StatusOK, gin.H{"apps": apps})
}

// GetApp returns one owned app
// GET /api/v1/merchant/apps/:id
func (h *MerchantHandler) GetApp(c *gin.Context) {
	userID, appID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	app, err := h.merchantUsecase.GetApp(c.Request.Context(), userID, appID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"app": app})
}

// UpdateApp edits an owned app
// PUT /api/v1/merchant/apps/:id
func (h *MerchantHandler) UpdateApp(c *gin.Context) {
	userID, appID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	var input usecases.AppInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	app, err := h.merchantUsecase.UpdateApp(c.Request.Context(), userID, appID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"app": app})
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetAppActive toggles an app on or off
// PUT /api/v1/merchant/apps/:id/active
func (h *MerchantHandler) SetAppActive(c *gin.Context) {
	userID, appID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	if err := h.merchantUsecase.SetAppActive(c.Request.Context(), userID, appID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "app updated"})
}

// ResetCredentials rotates an app's client secret and token
// POST /api/v1/merchant/apps/:id/reset-credentials
func (h *MerchantHandler) ResetCredentials(c *gin.Context) {
	userID, appID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	app, err := h.merchantUsecase.ResetCredentials(c.Request.Context(), userID, appID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"app": app})
}

// CreateProduct adds a product to an owned app
// POST /api/v1/merchant/apps/:id/products
func (h *MerchantHandler) CreateProduct(c *gin.Context) {
	userID, appID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	var input usecases.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	product, err := h.merchantUsecase.CreateProduct(c.Request.Context(), userID, appID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"product": product})
}

// ListProducts lists the products of an owned app
// GET /api/v1/merchant/apps/:id/products
func (h *MerchantHandler) ListProducts(c *gin.Context) {
	userID, appID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	products, err := h.merchantUsecase.ListProducts(c.Request.Context(), userID, appID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if products == nil {
		products = []*entities.Product{}
	}
	response.Success(c, http.StatusOK, gin.H{"products": products})
}

// UpdateProduct edits an owned product
// PUT /api/v1/merchant/products/:id
func (h *MerchantHandler) UpdateProduct(c *gin.Context) {
	userID, productID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	var input usecases.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	product, err := h.merchantUsecase.UpdateProduct(c.Request.Context(), userID, productID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"product": product})
}

type setProductStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// SetProductStatus flips a product between active and inactive
// PUT /api/v1/merchant/products/:id/status
func (h *MerchantHandler) SetProductStatus(c *gin.Context) {
	userID, productID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	var req setProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	if err := h.merchantUsecase.SetProductStatus(c.Request.Context(), userID, productID, entities.ProductStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "product updated"})
}

// DeleteProduct removes an owned product
// DELETE /api/v1/merchant/products/:id
func (h *MerchantHandler) DeleteProduct(c *gin.Context) {
	userID, productID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	if err := h.merchantUsecase.DeleteProduct(c.Request.Context(), userID, productID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "product deleted"})
}

type addCardKeysRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

// AddCardKeys uploads card keys for an auto-delivery product
// POST /api/v1/merchant/products/:id/card-keys
func (h *MerchantHandler) AddCardKeys(c *gin.Context) {
	userID, productID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	var req addCardKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	available, err := h.merchantUsecase.AddCardKeys(c.Request.Context(), userID, productID, req.Keys)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"availableKeys": available})
}

// GetProductStats returns inventory counts for an owned product
// GET /api/v1/merchant/products/:id/stats
func (h *MerchantHandler) GetProductStats(c *gin.Context) {
	userID, productID, ok := h.ownedApp(c)
	if !ok {
		return
	}

	stats, err := h.merchantUsecase.GetProductStats(c.Request.Context(), userID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ownedApp extracts the authenticated user and the :id path parameter.
func (h *MerchantHandler) ownedApp(c *gin.Context) (userID, id int64, ok bool) {
	userID, authed := middleware.GetUserID(c)
	if !authed {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return 0, 0, false
	}

	id, valid := pathID(c, "id")
	if !valid {
		response.Error(c, domainerrors.Validation("invalid id"))
		return 0, 0, false
	}
	return userID, id, true
}
