package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/service"
)

// AnalyticsHandler 负责统计与 AI 分析相关的 API 请求。
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	statsService     service.StatsService
}

// NewAnalyticsHandler 创建一个新的 AnalyticsHandler 实例。
func NewAnalyticsHandler(analyticsService service.AnalyticsService, statsService service.StatsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, statsService: statsService}
}

// Stats 返回首页概览数字。
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	out, err := h.statsService.Overview(c.Request.Context())
	if err != nil {
		abort(c, "统计概览", err)
		return
	}
	ok(c, "success", out)
}

// Members 返回成员统计与 AI 分析。
func (h *AnalyticsHandler) Members(c *gin.Context) {
	res, err := h.analyticsService.Members(c.Request.Context())
	if err != nil {
		abort(c, "成员分析", err)
		return
	}
	ok(c, messageOr(res.Message), res.Data)
}

// Documents 返回文档统计与 AI 分析。
func (h *AnalyticsHandler) Documents(c *gin.Context) {
	res, err := h.analyticsService.Documents(c.Request.Context())
	if err != nil {
		abort(c, "文档分析", err)
		return
	}
	ok(c, messageOr(res.Message), res.Data)
}

// Overview 返回整体概览，AI 不可用时退化为纯统计数据。
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	out, err := h.analyticsService.Overview(c.Request.Context())
	if err != nil {
		abort(c, "整体分析", err)
		return
	}
	ok(c, "success", out)
}

func messageOr(m string) string {
	if m == "" {
		return "success"
	}
	return m
}
