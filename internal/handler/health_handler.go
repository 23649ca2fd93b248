// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"rag-chat-go/pkg/database"

	"github.com/gin-gonic/gin"
)

// HealthHandler 处理健康检查请求。
type HealthHandler struct{}

// NewHealthHandler 创建一个新的 HealthHandler。
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check 检查核心依赖的连通性，任一依赖不可用时返回 degraded。
func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	deps := gin.H{}

	if err := database.RDB.Ping(c.Request.Context()).Err(); err != nil {
		status = "degraded"
		deps["redis"] = err.Error()
	} else {
		deps["redis"] = "ok"
	}

	if sqlDB, err := database.DB.DB(); err != nil {
		status = "degraded"
		deps["mysql"] = err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		status = "degraded"
		deps["mysql"] = err.Error()
	} else {
		deps["mysql"] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}
