package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "invalid request body", err))
		return
	}
	// the authenticated tenant always wins over whatever the body claims
	req.TenantID = tenantID

	resp, err := h.svc.HandleTurn(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
