package middleware

import (
	"net/http"
	"strings"

	"soulart_auction/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	UserNameKey = "user_name"
)

// 用戶角色（由主站後端簽發的 JWT 決定）
const (
	RoleUser         = "user"
	RoleSeller       = "seller"
	RoleAdmin        = "admin"
	RoleAuctionAdmin = "auction_admin"
)

type JWTClaims struct {
	UserID uint   `json:"uid"` // 與主站後端的格式一致
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func JWT(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := contextLogger(c)
		requestID := c.GetString(RequestIDKey)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "unauthorized",
				"message": "Authorization header required",
			}})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "unauthorized",
				"message": "Invalid authorization header format",
			}})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenParts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			logger.Warn("Invalid JWT token",
				zap.String("request_id", requestID),
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "unauthorized",
				"message": "Invalid token",
			}})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "unauthorized",
				"message": "Invalid token claims",
			}})
			c.Abort()
			return
		}

		c.Set(UserIDKey, uint64(claims.UserID))
		c.Set(UserRoleKey, claims.Role)
		c.Set(UserNameKey, claims.Name)

		c.Next()
	}
}

// RequireRole 限制端點只允許特定角色；平台管理員一律放行
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := contextLogger(c)

		userRole, exists := c.Get(UserRoleKey)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
				"code":    "forbidden",
				"message": "Role information not available",
			}})
			c.Abort()
			return
		}

		role := userRole.(string)
		allowed := role == RoleAdmin
		for _, r := range roles {
			if role == r {
				allowed = true
				break
			}
		}

		if !allowed {
			userID, _ := c.Get(UserIDKey)
			logger.Warn("Insufficient permissions",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.Any("user_id", userID),
				zap.String("user_role", role),
				zap.Strings("required_roles", roles),
			)
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
				"code":    "forbidden",
				"message": "Insufficient permissions",
			}})
			c.Abort()
			return
		}

		c.Next()
	}
}

func contextLogger(c *gin.Context) *zap.Logger {
	if ctxLogger, exists := c.Get("logger"); exists {
		if l, ok := ctxLogger.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
