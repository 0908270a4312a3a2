package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/utils"
)

type FollowUpHandler struct {
	svc services.FollowUpService
}

func NewFollowUpHandler(svc services.FollowUpService) *FollowUpHandler {
	return &FollowUpHandler{svc: svc}
}

type ScheduleFollowUpRequest struct {
	UserID      string          `json:"user_id" binding:"required"`
	Reason      string          `json:"reason"`
	Channel     string          `json:"channel"`
	ScheduledAt time.Time       `json:"scheduled_at" binding:"required"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func (h *FollowUpHandler) Schedule(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req ScheduleFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FollowUpHandler.Schedule", "invalid request body", err))
		return
	}

	out, err := h.svc.Schedule(c.Request.Context(), &models.FollowUp{
		TenantID:    tenantID,
		UserID:      req.UserID,
		Reason:      req.Reason,
		Channel:     req.Channel,
		ScheduledAt: req.ScheduledAt,
		Metadata:    datatypes.JSON(req.Metadata),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *FollowUpHandler) ListPending(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.svc.ListPending(c.Request.Context(), tenantID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"followups": rows})
}
