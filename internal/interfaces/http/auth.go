package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bnrm/backoffice/pkg/utils"
)

const (
	actorKey    = "actor"
	actorHeader = "X-Actor"
)

// ActorClaims are the claims read from host platform tokens
type ActorClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ActorMiddleware resolves the acting user. With a secret, an HMAC-signed
// bearer token is required and its email (or subject) becomes the actor.
// Without one, the X-Actor header is trusted.
func ActorMiddleware(secret string, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			actor := strings.TrimSpace(c.GetHeader(actorHeader))
			if actor == "" {
				abortUnauthorized(c, "missing X-Actor header")
				return
			}
			setActor(c, actor)
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims := &ActorClaims{}
		_, err := jwt.ParseWithClaims(auth[len("Bearer "):], claims,
			func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			},
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithLeeway(30*time.Second),
		)
		if err != nil {
			logger.Error("Rejected bearer token", "error", err)
			abortUnauthorized(c, "invalid token")
			return
		}

		actor := claims.Email
		if actor == "" {
			actor = claims.Subject
		}
		if actor == "" {
			abortUnauthorized(c, "token names no actor")
			return
		}

		setActor(c, actor)
	}
}

func setActor(c *gin.Context, actor string) {
	if err := utils.ValidateActor(actor); err != nil {
		abortUnauthorized(c, "invalid actor")
		return
	}
	c.Set(actorKey, actor)
	c.Next()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   msg,
	})
}
