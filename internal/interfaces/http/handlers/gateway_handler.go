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

type gatewayService interface {
	SubmitOrder(ctx context.Context, params map[string]string) (*entities.Order, error)
	Query(ctx context.Context, pid, key, outTradeNo string) (*entities.Order, error)
	Refund(ctx context.Context, pid, key, outTradeNo, money string) (*entities.Order, error)
	GetOrder(ctx context.Context, orderNo string) (*entities.Order, error)
	Confirm(ctx context.Context, userID int64, orderNo, pin string) (*usecases.ConfirmResult, error)
}

// GatewayHandler speaks the legacy form-encoded merchant protocol. Merchant
// endpoints answer in the legacy code/msg shape, not the JSON API envelope.
type GatewayHandler struct {
	gatewayUsecase gatewayService
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(gatewayUsecase *usecases.GatewayUsecase) *GatewayHandler {
	return &GatewayHandler{gatewayUsecase: gatewayUsecase}
}

func legacyError(c *gin.Context, err error) {
	message := "internal error"
	if appErr, ok := err.(*domainerrors.AppError); ok {
		message = appErr.Message
	}
	// legacy clients read code/msg from a 200 response
	c.JSON(http.StatusOK, gin.H{"code": -1, "msg": message})
}

func legacyOrder(order *entities.Order) gin.H {
	tradeStatus := "TRADE_CLOSED"
	switch order.Status {
	case entities.OrderStatusPending:
		tradeStatus = "WAIT_BUYER_PAY"
	case entities.OrderStatusSuccess:
		tradeStatus = "TRADE_SUCCESS"
	}

	return gin.H{
		"trade_no":     order.OrderNo,
		"out_trade_no": order.MerchantOrderNo.String,
		"type":         order.PaymentType,
		"name":         order.OrderName,
		"money":        order.Amount.StringFixed(2),
		"status":       order.Status,
		"trade_status": tradeStatus,
	}
}

// Submit opens a merchant payment order
// POST /gateway/submit
func (h *GatewayHandler) Submit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		legacyError(c, domainerrors.Validation("malformed form body"))
		return
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	order, err := h.gatewayUsecase.SubmitOrder(c.Request.Context(), params)
	if err != nil {
		legacyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     1,
		"msg":      "success",
		"trade_no": order.OrderNo,
		"payurl":   "/pay/" + order.OrderNo,
	})
}

// Query returns order state to the merchant
// GET /gateway/api/order
func (h *GatewayHandler) Query(c *gin.Context) {
	order, err := h.gatewayUsecase.Query(c.Request.Context(),
		c.Query("pid"), c.Query("key"), c.Query("out_trade_no"))
	if err != nil {
		legacyError(c, err)
		return
	}

	payload := legacyOrder(order)
	payload["code"] = 1
	payload["msg"] = "success"
	c.JSON(http.StatusOK, payload)
}

// Refund returns a settled order's funds to the payer
// POST /gateway/api/refund
func (h *GatewayHandler) Refund(c *gin.Context) {
	order, err := h.gatewayUsecase.Refund(c.Request.Context(),
		c.PostForm("pid"), c.PostForm("key"), c.PostForm("out_trade_no"), c.PostForm("money"))
	if err != nil {
		legacyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     1,
		"msg":      "success",
		"trade_no": order.OrderNo,
	})
}

// GetOrder loads a pending order for the cashier page
// GET /api/v1/gateway/orders/:orderNo
func (h *GatewayHandler) GetOrder(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	order, err := h.gatewayUsecase.GetOrder(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

type confirmOrderRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// Confirm settles a pending merchant order as the authenticated payer
// POST /api/v1/gateway/orders/:orderNo/confirm
func (h *GatewayHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("user not authenticated"))
		return
	}

	var req confirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	result, err := h.gatewayUsecase.Confirm(c.Request.Context(), userID, c.Param("orderNo"), req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"order":     result.Order,
		"returnUrl": result.ReturnURL,
	})
}
