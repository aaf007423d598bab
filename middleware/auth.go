package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loganand612/inspection-server/config"
	"github.com/loganand612/inspection-server/models"
	"github.com/loganand612/inspection-server/utils"
)

const (
	CtxUser     = "user"
	CtxTemplate = "templateObj"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT,
// loads the user and injects it into the context.
func AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := userFromHeader(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		c.Set(CtxUser, user)
		c.Next()
	}
}

func userFromHeader(c *gin.Context) (models.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return models.User{}, false
	}
	rawToken := strings.TrimSpace(authHeader[7:])

	claims, err := utils.VerifyToken(rawToken)
	if err != nil {
		return models.User{}, false
	}

	uid, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return models.User{}, false
	}

	var user models.User
	if err := config.DB.First(&user, uid).Error; err != nil {
		return models.User{}, false
	}
	return user, true
}

// RequireAdmin guards admin-only routes. Must run after AuthJWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if u := v.(models.User); !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Only admin users may do this"})
			return
		}
		c.Next()
	}
}

// RequireInspector guards inspector-only routes. Must run after AuthJWT.
func RequireInspector() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if u := v.(models.User); !u.IsInspector() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Only inspectors may do this"})
			return
		}
		c.Next()
	}
}
