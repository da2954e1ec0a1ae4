package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/internal/interfaces/http/handlers"
	"credit-ledger.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	walletHandler      *handlers.WalletHandler
	transferHandler    *handlers.TransferHandler
	tipHandler         *handlers.TipHandler
	redEnvelopeHandler *handlers.RedEnvelopeHandler
	disputeHandler     *handlers.DisputeHandler
	merchantHandler    *handlers.MerchantHandler
	productHandler     *handlers.ProductHandler
	gatewayHandler     *handlers.GatewayHandler
	paymentHandler     *handlers.PaymentHandler
	configHandler      *handlers.ConfigHandler
	authMiddleware     gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// registerGatewayRoutes mounts the legacy form-encoded merchant protocol.
// These endpoints authenticate by merchant signature, not by session token.
func registerGatewayRoutes(r *gin.Engine, d routeDeps) {
	gateway := r.Group("/gateway")
	{
		gateway.POST("/submit", d.gatewayHandler.Submit)
		gateway.GET("/api/order", d.gatewayHandler.Query)
		gateway.POST("/api/refund", d.gatewayHandler.Refund)
	}
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Merchant-signed payment protocol (public, signature-authed)
		v1.POST("/payments", middleware.Idempotency(), d.paymentHandler.Process)
		v1.GET("/payments/:transactionId", d.paymentHandler.Query)

		// Wallet routes (protected)
		wallet := v1.Group("/wallet")
		wallet.Use(d.authMiddleware)
		{
			wallet.GET("", d.walletHandler.Show)
			wallet.GET("/balance", d.walletHandler.Balance)
			wallet.GET("/orders", d.walletHandler.ListOrders)
			wallet.PUT("/pay-key", d.walletHandler.SetPayKey)
		}

		// Transfer routes (protected)
		transfers := v1.Group("/transfers")
		transfers.Use(d.authMiddleware)
		{
			transfers.POST("", d.transferHandler.Transfer)
		}
		v1.GET("/users/search", d.authMiddleware, d.transferHandler.SearchRecipients)

		// Tip routes (protected; the post tip list is public)
		tips := v1.Group("/tips")
		tips.Use(d.authMiddleware)
		{
			tips.POST("", d.tipHandler.Tip)
		}
		v1.GET("/posts/:id/tips", d.tipHandler.PostTips)

		// Red envelope routes (protected)
		envelopes := v1.Group("/red-envelopes")
		envelopes.Use(d.authMiddleware)
		{
			envelopes.POST("", d.redEnvelopeHandler.Create)
			envelopes.GET("/sent", d.redEnvelopeHandler.ListSent)
			envelopes.GET("/claimed", d.redEnvelopeHandler.ListClaimed)
			envelopes.GET("/:id", d.redEnvelopeHandler.Show)
			envelopes.POST("/:id/claim", d.redEnvelopeHandler.Claim)
		}

		// Dispute routes (protected)
		disputes := v1.Group("/disputes")
		disputes.Use(d.authMiddleware)
		{
			disputes.GET("", d.disputeHandler.ListMine)
			disputes.GET("/incoming", d.disputeHandler.ListIncoming)
			disputes.GET("/disputable", d.disputeHandler.ListDisputable)
			disputes.POST("", d.disputeHandler.Create)
			disputes.POST("/:id/refund", d.disputeHandler.Refund)
			disputes.POST("/:id/reject", d.disputeHandler.Reject)
			disputes.POST("/:id/withdraw", d.disputeHandler.Withdraw)
		}

		// Merchant console routes (protected)
		merchant := v1.Group("/merchant")
		merchant.Use(d.authMiddleware)
		{
			merchant.POST("/apps", d.merchantHandler.CreateApp)
			merchant.GET("/apps", d.merchantHandler.ListApps)
			merchant.GET("/apps/:id", d.merchantHandler.GetApp)
			merchant.PUT("/apps/:id", d.merchantHandler.UpdateApp)
			merchant.PUT("/apps/:id/active", d.merchantHandler.SetAppActive)
			merchant.POST("/apps/:id/reset-credentials", d.merchantHandler.ResetCredentials)

			merchant.POST("/apps/:id/products", d.merchantHandler.CreateProduct)
			merchant.GET("/apps/:id/products", d.merchantHandler.ListProducts)
			merchant.PUT("/products/:id", d.merchantHandler.UpdateProduct)
			merchant.PUT("/products/:id/status", d.merchantHandler.SetProductStatus)
			merchant.DELETE("/products/:id", d.merchantHandler.DeleteProduct)
			merchant.POST("/products/:id/card-keys", d.merchantHandler.AddCardKeys)
			merchant.GET("/products/:id/stats", d.merchantHandler.GetProductStats)
		}

		// Buyer-facing product routes (protected)
		products := v1.Group("/products")
		products.Use(d.authMiddleware)
		{
			products.GET("/:id", d.productHandler.Show)
			products.POST("/:id/buy", d.productHandler.Buy)
		}

		// Legacy gateway cashier routes (protected)
		gatewayOrders := v1.Group("/gateway/orders")
		gatewayOrders.Use(d.authMiddleware)
		{
			gatewayOrders.GET("/:orderNo", d.gatewayHandler.GetOrder)
			gatewayOrders.POST("/:orderNo/confirm", d.gatewayHandler.Confirm)
		}

		// Payment cashier routes (protected)
		payments := v1.Group("/payments")
		payments.Use(d.authMiddleware)
		{
			payments.GET("/:transactionId/pay-page", d.paymentHandler.GetPayPage)
			payments.POST("/:transactionId/confirm", d.paymentHandler.Confirm)
		}

		// Admin routes (protected, admin only)
		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.GET("/configs", d.configHandler.List)
			admin.PUT("/configs/:key", d.configHandler.Set)
			admin.GET("/pay-levels", d.configHandler.ListPayLevels)
		}
	}
}
