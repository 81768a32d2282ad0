// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

// statusOf 把业务错误映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCSV),
		errors.Is(err, service.ErrCollectionNameRequired),
		errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrExtractionFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSearchIndexDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abort 记录错误并返回统一的错误响应。5xx 不向客户端暴露内部细节。
func abort(c *gin.Context, op string, err error) {
	status := statusOf(err)
	reqLog := log.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		reqLog.Errorf("%s 失败: %v", op, err)
		fail(c, status, "服务器内部错误")
		return
	}
	reqLog.Warnf("%s 失败: %v", op, err)
	fail(c, status, err.Error())
}

// idParam 解析路径中的数字 ID。
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "无效的 ID")
		return 0, false
	}
	return uint(id), true
}

// Health 是存活探针。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
