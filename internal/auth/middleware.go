package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
)

const (
	ctxUserID   = "user_id"
	ctxBranchID = "branch_id"
	ctxEmail    = "user_email"
	ctxRole     = "user_role"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg})
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Token is empty")
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				abort(c, http.StatusUnauthorized, "Token expired")
			} else {
				abort(c, http.StatusUnauthorized, "Invalid or malformed token")
			}
			return
		}

		if claims.TokenType != tokenTypeAccess {
			abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxBranchID, claims.BranchID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "User role not found")
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "Insufficient permissions")
	}
}

// RequireBranchAccess restricts staff to the branch named by the path
// parameter. Admins pass for every branch.
func RequireBranchAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "User role not found")
			return
		}
		if role == RoleAdmin {
			c.Next()
			return
		}

		requested, err := strconv.Atoi(c.Param(param))
		if err != nil || requested <= 0 {
			abort(c, http.StatusBadRequest, "Invalid branch ID")
			return
		}

		own, ok := GetBranchID(c)
		if !ok || own != requested {
			abort(c, http.StatusForbidden, "No access to this branch")
			return
		}

		c.Next()
	}
}

func getInt(c *gin.Context, key string) (int, bool) {
	v, exists := c.Get(key)
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

func GetUserID(c *gin.Context) (int, bool) {
	id, ok := getInt(c, ctxUserID)
	if !ok {
		return 0, false
	}
	return id, true
}

func GetBranchID(c *gin.Context) (int, bool) {
	id, ok := getInt(c, ctxBranchID)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

func GetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
