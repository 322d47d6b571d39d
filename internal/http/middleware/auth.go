package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/auth"
	"github.com/tbourn/careerfix-backend/internal/identity"
)

// TokenVerifier validates bearer tokens issued by the authentication
// provider. *auth.Verifier implements it.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

const ctxKeyAuth = "auth"

// Authenticate reads an optional "Authorization: Bearer <jwt>" header. A
// request without the header continues anonymously; a present but invalid
// token is rejected with 401 so clients notice an expired session instead of
// silently falling back to guest quotas. A nil verifier treats every request
// as anonymous.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" || v == nil {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(raw, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "malformed Authorization header")
			return
		}
		claims, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
			abortUnauthorized(c, msg)
			return
		}
		c.Set(ctxKeyAuth, identity.AuthState{AccountID: claims.AccountID(), DisplayName: claims.Name})
		c.Next()
	}
}

// AuthFrom returns the authentication state set by Authenticate. The zero
// value means anonymous.
func AuthFrom(c *gin.Context) identity.AuthState {
	if v, ok := c.Get(ctxKeyAuth); ok {
		if a, ok := v.(identity.AuthState); ok {
			return a
		}
	}
	return identity.AuthState{}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="careerfix"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       "unauthorized",
		"message":    msg,
	})
}
