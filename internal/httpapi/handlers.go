package httpapi

import (
	"net/http"
	"time"

	"receptionist-platform/internal/appointments"
	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/rbac"
	"receptionist-platform/internal/usage"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth         *auth.Manager
	Usage        *usage.Service
	Appointments appointments.Store

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.OrgID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, org_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), req.UserID, req.OrgID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Usage ---

// GetUsageReport aggregates one org's window.
//
// Query parameters: either period (current_month|last_month|current_year) or
// explicit startDate+endDate (YYYY-MM-DD, end inclusive). Explicit dates win.
func (h Handlers) GetUsageReport(c *gin.Context) {
	if h.Usage == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "usage not configured"})
		return
	}
	orgID := c.Param("org_id")
	if orgID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "org_id required"})
		return
	}

	win, err := usage.ResolveWindow(
		c.Query("period"), c.Query("startDate"), c.Query("endDate"), h.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.Usage.Report(c.Request.Context(), orgID, win)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- Appointments ---

// ListAppointments returns an org's appointments in a window resolved the
// same way as the usage report.
func (h Handlers) ListAppointments(c *gin.Context) {
	if h.Appointments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "appointments not configured"})
		return
	}
	orgID := c.Param("org_id")
	if orgID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "org_id required"})
		return
	}

	win, err := usage.ResolveWindow(
		c.Query("period"), c.Query("startDate"), c.Query("endDate"), h.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appts, err := h.Appointments.ListByOrg(c.Request.Context(), orgID, win.From, win.To)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// RequireOrgMember bundles the guards for org-scoped read endpoints.
func RequireOrgMember(members rbac.MembershipChecker, roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		rbac.RequireOrg(),
		rbac.RequireAnyRole(roles...),
		rbac.RequireOrgMembership(members),
	}
}
