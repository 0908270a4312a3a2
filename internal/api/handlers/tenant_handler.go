package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/utils"
)

type TenantHandler struct {
	svc services.TenantService
}

func NewTenantHandler(svc services.TenantService) *TenantHandler {
	return &TenantHandler{svc: svc}
}

type UpsertTenantResponse struct {
	Settings *models.TenantSettings `json:"settings"`
	// APIKey is returned exactly once, on first create.
	APIKey string `json:"api_key,omitempty"`
}

// Upsert provisions or reconfigures a tenant. Admin-only.
func (h *TenantHandler) Upsert(c *gin.Context) {
	var req models.TenantSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TenantHandler.Upsert", "invalid request body", err))
		return
	}
	if id := c.Param("tenant_id"); id != "" {
		req.TenantID = id
	}

	settings, apiKey, err := h.svc.UpsertSettings(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpsertTenantResponse{Settings: settings, APIKey: apiKey})
}

func (h *TenantHandler) Get(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	settings, err := h.svc.GetSettings(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// Me returns the authenticated tenant's own settings.
func (h *TenantHandler) Me(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	settings, err := h.svc.GetSettings(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
