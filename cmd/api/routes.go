package main

import (
	"database/sql"
	"net/http"
	"time"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/httpapi"
	"receptionist-platform/internal/rbac"
	"receptionist-platform/internal/webhooks"
	"receptionist-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	AuthMW   gin.HandlerFunc
	Webhooks webhooks.Handlers
	API      httpapi.Handlers
	Admin    httpapi.AdminHandlers
	Members  rbac.MembershipChecker
	DB       *sql.DB
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if deps.DB != nil {
			if err := utils.PingPostgres(c.Request.Context(), deps.DB, 2*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks (public paths, authenticated by signature/secret
	// inside the handlers before anything else happens).
	r.POST("/webhooks/automation/events", deps.Webhooks.HandleAutomationEvent)
	r.POST("/webhooks/voice/events", deps.Webhooks.HandleVoiceEvent)

	// Token issuance is the one unauthenticated API route.
	r.POST("/v1/auth/login", deps.API.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(deps.AuthMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			oid, _ := auth.OrgID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "org_id": oid, "role": role})
		})

		// ORG-scoped routes: token org plus a stored membership in the
		// target org. Analysts get read access to reports.
		org := v1.Group("/orgs/:org_id")
		org.Use(httpapi.RequireOrgMember(deps.Members,
			rbac.RoleOwner, rbac.RoleAdmin, rbac.RoleMember, rbac.RoleAnalyst)...)
		{
			org.GET("/usage", deps.API.GetUsageReport)
			org.GET("/appointments", deps.API.ListAppointments)
		}

		// Platform provisioning. Super admins only.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleSuperAdmin))
		{
			admin.POST("/orgs", deps.Admin.CreateOrg)
			admin.POST("/orgs/:org_id/numbers", deps.Admin.AssignNumber)
			admin.POST("/numbers/:number_id/release", deps.Admin.ReleaseNumber)
		}
	}
}
