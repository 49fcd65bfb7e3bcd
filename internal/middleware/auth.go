package middleware

import (
	"net/http"
	"strings"

	userService "anoa.com/learnhub/internal/modules/user/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokens     userService.TokenService
	resolver   userService.IdentityResolver
	classifier *policy.Classifier
}

func NewAuthMiddleware(tokens userService.TokenService, resolver userService.IdentityResolver, classifier *policy.Classifier) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:     tokens,
		resolver:   resolver,
		classifier: classifier,
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}

// RequireAuth rejects anonymous requests and attaches the resolved identity.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.authenticate(true)
}

// OptionalAuth attaches the identity when a token is present. A malformed token is
// still rejected so clients notice expired sessions.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return m.authenticate(false)
}

func (m *AuthMiddleware) authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
				return
			}
			c.Next()
			return
		}

		claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		identity, _, err := m.resolver.Resolve(c.Request.Context(), claims)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set(response.CtxSubject, claims.Subject)
		c.Set(response.CtxIdentity, identity)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.requireCapability("admin access required", func(c policy.Capabilities) bool {
		return c.IsAdmin
	})
}

// RequireAuthor admits teachers and admins.
func (m *AuthMiddleware) RequireAuthor() gin.HandlerFunc {
	return m.requireCapability("teacher access required", policy.Capabilities.CanAuthor)
}

func (m *AuthMiddleware) requireCapability(message string, allowed func(policy.Capabilities) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := response.GetIdentity(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		if !allowed(m.classifier.Classify(identity, nil)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
			return
		}

		c.Next()
	}
}
