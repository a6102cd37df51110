package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	subjectKey = "auth.subject"
	rolesKey   = "auth.roles"
)

// RoleTutor and RoleStudent are the roles this service cares about.
const (
	RoleTutor   = "TUTOR"
	RoleStudent = "STUDENT"
)

// Middleware resolves the Authorization header into a subject and role set
// and aborts with 401 when the token is missing or the users service rejects
// it.
func Middleware(client *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")
		if !strings.HasPrefix(bearer, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		rr, err := client.MyRoles(c.Request.Context(), bearer)
		if err != nil || rr.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(subjectKey, rr.ID)
		c.Set(rolesKey, rr.Roles)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the resolved caller has the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range Roles(c) {
			if strings.EqualFold(r, role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing role " + role})
	}
}

// Subject returns the resolved caller id.
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

// Roles returns the resolved caller roles.
func Roles(c *gin.Context) []string {
	if v, ok := c.Get(rolesKey); ok {
		if roles, ok := v.([]string); ok {
			return roles
		}
	}
	return nil
}
