package rbac

import (
	"net/http"

	"workhub/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireCompany enforces that non-admin callers belong to a company.
// Membership in a specific project is checked by the owning service.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := auth.Role(c.Request.Context())
		if IsAdmin(role) {
			c.Next()
			return
		}
		if _, err := auth.CompanyID(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "company_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// admin bypasses all checks.
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
		if IsAdmin(role) {
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
