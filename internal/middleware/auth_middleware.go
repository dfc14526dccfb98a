package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// EmailKey is the gin context key holding the authenticated user's email.
const EmailKey = "email"

// TokenCookie is the name of the session cookie set at login.
const TokenCookie = "token"

type TokenParser interface {
	ParseToken(tokenStr string) (string, error)
}

// JWTAuthMiddleware accepts the session cookie or an Authorization: Bearer
// header and stores the token's email under EmailKey.
func JWTAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	validate := validator.New()

	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			return
		}

		email, err := tokens.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if err := validate.Var(email, "required,email"); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid email in token"})
			return
		}

		c.Set(EmailKey, email)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
			return cookie, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication token is required"})
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
		return "", false
	}
	return parts[1], true
}
