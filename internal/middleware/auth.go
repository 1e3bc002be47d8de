package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/service"
)

// Session and context keys shared with the auth handlers.
const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
	SessionRole     = "role"

	ContextUserID   = "auth.userID"
	ContextUsername = "auth.username"
	ContextRole     = "auth.role"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// AuthRequired accepts an `Authorization: Bearer` token or an admin session
// and rejects everything else with 401.
func AuthRequired(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			raw, ok := bearerToken(header)
			if !ok || tokens == nil {
				abortJSON(c, http.StatusUnauthorized, "invalid authorization header")
				return
			}
			claims, err := tokens.ParseToken(raw)
			if err != nil {
				abortJSON(c, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			setIdentity(c, claims.UserID, claims.Username, claims.Role)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(uint)
		if !ok || userID == 0 {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}
		username, _ := session.Get(SessionUsername).(string)
		role, _ := session.Get(SessionRole).(string)
		setIdentity(c, userID, username, role)
		c.Next()
	}
}

// RequireRole rejects authenticated users whose role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortJSON(c, http.StatusForbidden, "insufficient permissions")
	}
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

func setIdentity(c *gin.Context, userID uint, username, role string) {
	c.Set(ContextUserID, userID)
	c.Set(ContextUsername, username)
	c.Set(ContextRole, role)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
