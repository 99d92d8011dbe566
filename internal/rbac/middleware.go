package rbac

import (
	"context"
	"net/http"

	"receptionist-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireOrg enforces the multi-tenant invariant: org_id must exist in context.
func RequireOrg() gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := auth.OrgID(c.Request.Context())
		if err != nil || oid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// super_admin bypasses all checks. Org isolation is enforced via RequireOrg
// (use it in the chain).
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// MembershipChecker reports whether a user belongs to an organization.
// Implemented by orgs.MemoryStore / orgs.PostgresStore.
type MembershipChecker interface {
	IsMember(ctx context.Context, orgID, userID string) (bool, error)
}

// RequireOrgMembership enforces that the authenticated user is a member of the
// organization named by the :org_id route param. super_admin bypasses.
//
// The token's org_id claim is not trusted for cross-org access: the path param
// is the target, and membership is checked against storage.
func RequireOrgMembership(members MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := c.Param("org_id")
		if target == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "org_id required"})
			return
		}
		userID, err := auth.UserID(c.Request.Context())
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if role, err := auth.Role(c.Request.Context()); err == nil && IsSuperAdmin(role) {
			c.Next()
			return
		}
		if members == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "membership store not configured"})
			return
		}
		ok, err := members.IsMember(c.Request.Context(), target, userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
