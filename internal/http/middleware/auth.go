package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-API-Key"

type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret string
	// APIKeyHash is a bcrypt hash compared against the X-API-Key header.
	APIKeyHash string
}

func (a AuthConfig) enabled() bool {
	return a.JWTSecret != "" || a.APIKeyHash != ""
}

// Auth accepts either a valid bearer token or a matching API key. With
// neither configured every request passes.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.enabled() {
			c.Next()
			return
		}
		if key := strings.TrimSpace(c.GetHeader(apiKeyHeader)); key != "" && cfg.APIKeyHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(cfg.APIKeyHash), []byte(key)) == nil {
				c.Set("auth_subject", "api-key")
				c.Next()
				return
			}
		}
		if tok := bearer(c.GetHeader("Authorization")); tok != "" && cfg.JWTSecret != "" {
			if sub, err := verifyJWT(tok, cfg.JWTSecret); err == nil {
				c.Set("auth_subject", sub)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "unauthorized",
			"code":       "unauthorized",
			"request_id": GetRequestID(c),
		})
	}
}

func bearer(h string) string {
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func verifyJWT(raw, secret string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", errors.New("invalid token")
	}
	sub, _ := tok.Claims.GetSubject()
	return sub, nil
}
