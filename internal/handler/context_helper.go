package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/peoplehq/hrm-api/internal/middleware"
	"github.com/peoplehq/hrm-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// ownerScope returns the profile id used to pin employee-scoped queries.
// HR and admin callers get an empty scope and see everything.
func ownerScope(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleHR {
		return ""
	}
	return claims.ProfileID
}

func profileIDFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.ProfileID
	}
	return ""
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return page, size
}
