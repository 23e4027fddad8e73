package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"digitalwallet/internal/auth"
	"digitalwallet/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const principalKey = "principal"

// PrincipalResolver maps a verified token subject to a user record.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, username string) (*models.User, error)
}

// RequestID tags every request so log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AuthRequired extracts the bearer token, verifies signature and expiry,
// resolves the subject to a user and installs it as the request principal.
func AuthRequired(tokens *auth.TokenManager, resolver PrincipalResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(c, http.StatusUnauthorized, "user was not authenticated, try logging in")
			c.Abort()
			return
		}

		username, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		principal, err := resolver.ResolvePrincipal(c.Request.Context(), username)
		if err != nil {
			logger.Warn("Token subject could not be resolved",
				slog.String("username", username),
				slog.Any("err", err),
			)
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func principalFrom(c *gin.Context) *models.User {
	v, ok := c.Get(principalKey)
	if !ok {
		respondError(c, http.StatusUnauthorized, "user was not authenticated, try logging in")
		c.Abort()
		return nil
	}
	principal, ok := v.(*models.User)
	if !ok {
		respondError(c, http.StatusUnauthorized, "user was not authenticated, try logging in")
		c.Abort()
		return nil
	}
	return principal
}
