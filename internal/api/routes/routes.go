package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/api/handlers"
	"github.com/niagahub/niagabot/internal/api/middleware"
	"github.com/niagahub/niagabot/internal/services"
)

type Deps struct {
	Tenants services.TenantService
	Logger  *logrus.Logger

	Chat     *handlers.ChatHandler
	KB       *handlers.KBHandler
	Sop      *handlers.SopHandler
	Tenant   *handlers.TenantHandler
	Contact  *handlers.ContactHandler
	FollowUp *handlers.FollowUpHandler
	WS       *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Tenant-facing routes (API key)
	api := r.Group("/")
	api.Use(middleware.TenantAuth(d.Tenants))

	api.POST("/chat", d.Chat.Chat)

	api.GET("/tenant/me", d.Tenant.Me)

	api.POST("/kb/items", d.KB.UpsertItems)
	api.POST("/kb/upload", d.KB.Upload)
	api.GET("/kb/items", d.KB.ListItems)
	api.GET("/kb/source-url", d.KB.SourceURL)
	api.DELETE("/kb/items", d.KB.DeleteAll)

	api.GET("/sop/state", d.Sop.GetState)
	api.PUT("/sop/state", d.Sop.SetState)

	api.POST("/contacts", d.Contact.Upsert)
	api.GET("/contacts", d.Contact.List)
	api.GET("/contacts/:contact_id", d.Contact.Get)
	api.DELETE("/contacts/:contact_id", d.Contact.Delete)
	api.GET("/contacts/:contact_id/messages", d.Contact.ListLogs)

	api.POST("/followups", d.FollowUp.Schedule)
	api.GET("/followups", d.FollowUp.ListPending)

	// WebSocket chat tester
	api.GET("/ws/chat", d.WS.ChatWS)

	// Operator dashboard routes (JWT)
	admin := r.Group("/admin")
	admin.Use(middleware.AdminJWTAuth())

	admin.PUT("/tenants/:tenant_id", d.Tenant.Upsert)
	admin.GET("/tenants/:tenant_id", d.Tenant.Get)
}
