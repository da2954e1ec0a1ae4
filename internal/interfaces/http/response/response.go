package response

import (
	"github.com/gin-gonic/gin"

	domainerrors "credit-ledger.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Unknown errors collapse to a generic 500 so
// driver messages never leak to clients.
func Error(c *gin.Context, err error) {
	appErr, ok := err.(*domainerrors.AppError)
	if !ok {
		appErr = domainerrors.InternalError(err)
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// Paged sends a list response with its total count.
func Paged(c *gin.Context, items interface{}, total int64) {
	c.JSON(200, gin.H{
		"items": items,
		"total": total,
	})
}
