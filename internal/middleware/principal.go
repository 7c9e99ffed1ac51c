package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campusgrid/exam-backend/internal/model"
	"github.com/campusgrid/exam-backend/internal/response"
)

// ContextKeyPrincipal is the Gin context key for the authenticated principal.
const ContextKeyPrincipal = "principal"

// Claims mirrors the token payload issued by the campus identity provider.
type Claims struct {
	Role model.Role `json:"role"`
	Name string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// RequirePrincipal validates the bearer token against the identity provider's
// shared secret and stores the resulting principal in the Gin context.
func RequirePrincipal(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := extractPrincipal(c, secret)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// RequireRole restricts a route to the given roles. Must run after
// RequirePrincipal.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		if len(roles) == 1 && roles[0] == model.RoleStudent {
			response.AbortFail(c, http.StatusForbidden, response.ErrStudentAccessOnly)
			return
		}
		response.AbortFail(c, http.StatusForbidden, response.ErrFacultyAccessOnly)
	}
}

// GetPrincipal retrieves the authenticated principal from the Gin context.
func GetPrincipal(c *gin.Context) *model.Principal {
	val, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil
	}
	p, ok := val.(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

func extractPrincipal(c *gin.Context, secret string) (*model.Principal, error) {
	tokenStr := ""

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}

	// Fallback for WebSocket upgrades, which cannot set headers from browsers.
	if tokenStr == "" {
		tokenStr = c.Query("token")
	}

	if tokenStr == "" {
		return nil, fmt.Errorf("authorization header or token query required")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	switch claims.Role {
	case model.RoleStudent, model.RoleFaculty, model.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &model.Principal{
		ID:   claims.Subject,
		Role: claims.Role,
		Name: claims.Name,
	}, nil
}
