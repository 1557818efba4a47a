// JWT bearer authentication.
//
// Auth() verifies the Authorization header, extracts the member id from
// the token's subject claim, and stores it in the Gin context for
// handlers. Routes that allow anonymous access simply omit the
// middleware.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// MemberIDKey is the Gin context key under which the authenticated
// member id (int) is stored.
const MemberIDKey = "memberID"

// MemberID returns the authenticated member id, or 0 when the request
// is anonymous.
func MemberID(c *gin.Context) int {
	return c.GetInt(MemberIDKey)
}

// Auth returns middleware that requires a valid HS256 bearer token
// signed with secret. Missing, malformed, expired, or foreign-key
// tokens abort with 401 and the standard error envelope.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.NewValidationError("unexpected signing method", jwt.ValidationErrorSignatureInvalid)
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			unauthorized(c, "invalid or expired token")
			return
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		memberID, err := strconv.Atoi(sub)
		if err != nil || memberID <= 0 {
			unauthorized(c, "invalid token subject")
			return
		}

		c.Set(MemberIDKey, memberID)
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>"; the scheme
// match is case-insensitive.
func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
