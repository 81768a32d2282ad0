package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

// AuthHandler 负责管理员登录。
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest 定义了登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验管理员凭据并签发访问令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "无效的请求负载：用户名和密码不能为空")
		return
	}
	res, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abort(c, "管理员 '"+req.Username+"' 登录", err)
		return
	}
	log.Infof("管理员 '%s' 登录成功", req.Username)
	ok(c, "Login successful", res)
}
