package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// TenantAuth authenticates tenant-facing routes with X-Tenant-Id plus
// X-API-Key and stores the verified tenant id in the request context.
func TenantAuth(tenants services.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-Id")
		apiKey := c.GetHeader("X-API-Key")

		if tenantID == "" || apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing tenant credentials",
			})
			return
		}

		if err := tenants.VerifyAPIKey(c.Request.Context(), tenantID, apiKey); err != nil {
			c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid tenant credentials",
			})
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}
