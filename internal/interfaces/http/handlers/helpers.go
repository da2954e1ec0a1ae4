package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/pkg/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageParams reads page/limit query values and returns the SQL limit and
// offset. The limit is capped so a client cannot dump whole tables.
func pageParams(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	params := utils.GetPaginationParams(page, size)
	return params.Limit, params.CalculateOffset()
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
