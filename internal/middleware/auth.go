package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/goldierill/board/internal/models"
	"github.com/goldierill/board/internal/pkg/jwt"
	"github.com/goldierill/board/internal/pkg/response"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxIsAdmin  = "is_admin"
)

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// resolve parses the bearer token and loads the user row so downstream
// handlers see the current username and admin flag, not stale claims.
func resolve(c *gin.Context, db *gorm.DB) (*models.UserModel, error) {
	token := extractToken(c)
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}

	var user models.UserModel
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

// Auth requires a valid token and an existing user.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolve(c, db)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Set(ctxUsername, user.Username)
		c.Set(ctxIsAdmin, user.IsAdmin)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and
// continues anonymously otherwise.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); ok {
			c.Next()
			return
		}
		if user, err := resolve(c, db); err == nil {
			c.Set(ctxUserID, user.ID)
			c.Set(ctxUsername, user.Username)
			c.Set(ctxIsAdmin, user.IsAdmin)
		}
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID, or (0, false).
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentUsername returns the authenticated username, or "".
func CurrentUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

// IsAdmin reports whether the request carries an admin user.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

// VoterIdentity derives the stable ledger key for the request:
// "user_<id>" for authenticated users, "anonymous_<ip>" otherwise.
func VoterIdentity(c *gin.Context) string {
	if id, ok := CurrentUserID(c); ok {
		return fmt.Sprintf("user_%d", id)
	}
	return "anonymous_" + c.ClientIP()
}
