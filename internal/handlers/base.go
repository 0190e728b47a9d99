package handlers

import (
	"errors"
	"net/http"

	"commentfeed/internal/middleware"
	"commentfeed/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Render helper to inject common variables like the request id
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if id, exists := c.Get(middleware.RequestIDKey); exists {
		obj["RequestID"] = id
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// statusOf 把业务错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrParentNotFound),
		errors.Is(err, services.ErrCaptchaMismatch),
		errors.Is(err, services.ErrAttachmentInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// abortJSON 返回 {"error": "..."}，5xx 不暴露内部错误
func abortJSON(c *gin.Context, log *zap.Logger, err error) {
	code := statusOf(err)
	_ = c.Error(err)

	message := err.Error()
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		message = http.StatusText(code)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Ping 健康检查
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
