package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"messenger-service/internal/identity"
	"messenger-service/internal/repositories"
)

// UserIDKey is the gin context key carrying the resolved internal user id.
// A zero value means no authenticated principal.
const UserIDKey = "userID"

// RequireAuth validates the bearer token and resolves the principal to an
// internal user, creating the user row on first contact. Mutations fail
// loudly: missing or invalid tokens abort with 401.
func RequireAuth(verifier *identity.Verifier, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromHeader(c, verifier)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		user, err := users.ResolvePrincipal(c.Request.Context(), principal)
		if err != nil {
			log.Error().Err(err).Str("subject", principal.Subject).Msg("resolve principal failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

// OptionalAuth resolves the principal when a valid token is present and sets
// a zero user id otherwise, letting queries degrade gracefully to empty
// results instead of failing.
func OptionalAuth(verifier *identity.Verifier, users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromHeader(c, verifier)
		if !ok {
			c.Set(UserIDKey, 0)
			c.Next()
			return
		}

		user, err := users.ResolvePrincipal(c.Request.Context(), principal)
		if err != nil {
			log.Warn().Err(err).Str("subject", principal.Subject).Msg("resolve principal failed")
			c.Set(UserIDKey, 0)
			c.Next()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

func principalFromHeader(c *gin.Context, verifier *identity.Verifier) (identity.Principal, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return identity.Principal{}, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return identity.Principal{}, false
	}

	principal, err := verifier.Verify(parts[1])
	if err != nil {
		return identity.Principal{}, false
	}
	return principal, true
}
