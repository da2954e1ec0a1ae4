package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/internal/interfaces/http/response"
)

// ConfigHandler exposes the tunable config rows to administrators
type ConfigHandler struct {
	configRepo   repositories.ConfigRepository
	payLevelRepo repositories.PayLevelRepository
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configRepo repositories.ConfigRepository, payLevelRepo repositories.PayLevelRepository) *ConfigHandler {
	return &ConfigHandler{configRepo: configRepo, payLevelRepo: payLevelRepo}
}

// List returns every config row
// GET /api/v1/admin/configs
func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configRepo.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if configs == nil {
		configs = []*entities.SystemConfig{}
	}
	response.Success(c, http.StatusOK, gin.H{"configs": configs})
}

type setConfigRequest struct {
	Value string `json:"value" binding:"required,max=500"`
}

// Set overrides one config key
// PUT /api/v1/admin/configs/:key
func (h *ConfigHandler) Set(c *gin.Context) {
	key := c.Param("key")
	if _, known := entities.ConfigDefaults[key]; !known {
		response.Error(c, domainerrors.NotFound("unknown config key"))
		return
	}

	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	if err := h.configRepo.Set(c.Request.Context(), key, req.Value); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "config updated"})
}

// ListPayLevels returns the fee tier table
// GET /api/v1/admin/pay-levels
func (h *ConfigHandler) ListPayLevels(c *gin.Context) {
	levels, err := h.payLevelRepo.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if levels == nil {
		levels = []*entities.PayLevelConfig{}
	}
	response.Success(c, http.StatusOK, gin.H{"payLevels": levels})
}
