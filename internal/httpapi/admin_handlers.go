package httpapi

import (
	"errors"
	"net/http"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/numbers"
	"receptionist-platform/internal/orgs"

	"github.com/gin-gonic/gin"
)

// AdminHandlers covers back-office provisioning: creating tenant orgs and
// assigning phone numbers to them. Every action is audit-logged.
type AdminHandlers struct {
	Orgs    orgs.Store
	Numbers numbers.Store
	Audit   *audit.Service
}

type createOrgRequest struct {
	Name        string `json:"name"`
	OwnerUserID string `json:"owner_user_id"`
}

// CreateOrg provisions an organization together with its owner membership.
func (h AdminHandlers) CreateOrg(c *gin.Context) {
	if h.Orgs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orgs not configured"})
		return
	}
	var req createOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.OwnerUserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name, owner_user_id required"})
		return
	}

	org, err := h.Orgs.CreateOrgWithOwner(c.Request.Context(), orgs.Organization{Name: req.Name}, req.OwnerUserID)
	if err != nil {
		if errors.Is(err, orgs.ErrAlreadyExists) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "organization already exists"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		return
	}

	h.logAdmin(c, org.ID, "organization created")
	c.JSON(http.StatusCreated, org)
}

type assignNumberRequest struct {
	Number string `json:"number"`
}

// AssignNumber attaches an E.164 number to the org named in the path.
func (h AdminHandlers) AssignNumber(c *gin.Context) {
	if h.Numbers == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "numbers not configured"})
		return
	}
	orgID := c.Param("org_id")
	if orgID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "org_id required"})
		return
	}
	var req assignNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Number == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "number required"})
		return
	}

	n, err := h.Numbers.Create(c.Request.Context(), numbers.PhoneNumber{OrgID: orgID, Number: req.Number})
	if err != nil {
		if errors.Is(err, numbers.ErrAlreadyExists) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "number already assigned"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "assignment failed"})
		return
	}

	h.logAdmin(c, orgID, "number assigned: "+n.Number)
	c.JSON(http.StatusCreated, n)
}

// ReleaseNumber retires a number assignment. The row stays for history; the
// number stops resolving webhook context.
func (h AdminHandlers) ReleaseNumber(c *gin.Context) {
	if h.Numbers == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "numbers not configured"})
		return
	}
	id := c.Param("number_id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "number_id required"})
		return
	}

	if err := h.Numbers.Release(c.Request.Context(), id); err != nil {
		if errors.Is(err, numbers.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "number not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "release failed"})
		return
	}

	h.logAdmin(c, "", "number released: "+id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// logAdmin is best-effort; provisioning never fails on an audit miss.
func (h AdminHandlers) logAdmin(c *gin.Context, orgID, message string) {
	if h.Audit == nil {
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	if orgID == "" {
		orgID = "platform"
	}
	_ = h.Audit.LogAdminAction(c.Request.Context(), orgID, userID, role, c.ClientIP(), message, "")
}
