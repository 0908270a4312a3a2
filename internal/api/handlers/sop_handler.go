package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/utils"
)

type SopHandler struct {
	svc services.SopStateService
}

func NewSopHandler(svc services.SopStateService) *SopHandler {
	return &SopHandler{svc: svc}
}

func (h *SopHandler) GetState(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var contactID *string
	if v := c.Query("contact_id"); v != "" {
		contactID = &v
	}
	userID := c.Query("user_id")

	st, err := h.svc.GetState(c.Request.Context(), tenantID, contactID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

type SetStateRequest struct {
	ContactID   *string `json:"contact_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	CurrentStep *string `json:"current_step"`
}

func (h *SopHandler) SetState(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SopHandler.SetState", "invalid request body", err))
		return
	}

	st, err := h.svc.SetState(c.Request.Context(), &models.SopState{
		TenantID:    tenantID,
		ContactID:   req.ContactID,
		UserID:      req.UserID,
		CurrentStep: req.CurrentStep,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}
