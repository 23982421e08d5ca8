package middlewares

import (
	"errors"
	"strings"

	"github.com/geocoder89/eventsapp/internal/actorctx"
	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyIdentity(token string) (auth.Identity, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth resolves the bearer token into an identity or stops with 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWith(c, apperr.Unauthenticated("Missing or invalid Authorization header"))
			return
		}

		id, err := m.jwt.VerifyIdentity(raw)
		if err != nil {
			msg := "Invalid access token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "Access token expired"
			}
			abortWith(c, apperr.Unauthenticated("%s", msg).WithCause(err))
			return
		}

		c.Set(ctxIdentityKey, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// bearerToken accepts the scheme in any case and rejects empty tokens.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFrom spares handlers from knowing the context key.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.UserID != ""
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
