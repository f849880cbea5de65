package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"eventboard-api/services"
	"eventboard-api/utils"

	"github.com/gin-gonic/gin"
)

const (
	SessionHeader = "X-Session-Token"
	identityKey   = "identity"
	tokenKey      = "session_token"
)

// Session attaches an identity to every request. A valid bearer token is
// resumed; anything else gets a fresh anonymous identity whose token is sent
// back in the X-Session-Token header.
func Session(identities *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			id, err := identities.Resolve(token)
			if err == nil {
				setIdentity(c, id, token)
				c.Next()
				return
			}
			slog.Debug("session_token_rejected", "error", err)
		}

		id, token, err := identities.MintAnonymous()
		if err != nil {
			slog.Error("session_mint_failed", "error", err)
			c.Next()
			return
		}
		c.Header(SessionHeader, token)
		setIdentity(c, id, token)
		c.Next()
	}
}

// RequireModerator rejects requests whose session is not a moderator.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			utils.SendError(c, http.StatusUnauthorized, "Session required")
			c.Abort()
			return
		}
		if !id.IsModerator() {
			utils.SendError(c, http.StatusForbidden, "Moderator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by Session.
func CurrentIdentity(c *gin.Context) (services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}, false
	}
	id, ok := v.(services.Identity)
	return id, ok
}

// SessionToken returns the token that carries the current identity.
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func setIdentity(c *gin.Context, id services.Identity, token string) {
	c.Set(identityKey, id)
	c.Set(tokenKey, token)
	c.Set("user_id", id.ID)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
