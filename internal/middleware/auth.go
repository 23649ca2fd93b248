// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"net/http"
	"rag-chat-go/pkg/token"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 创建一个 Gin 中间件，用于管理端路由的 JWT 认证。
// 它从 Authorization 头提取 Bearer token，校验签名与 ADMIN 角色。
func AdminAuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		if claims.Role != "ADMIN" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "权限不足，需要管理员权限"})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
