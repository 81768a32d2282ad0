package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

// MemberHandler 负责处理成员名册相关的 API 请求。
type MemberHandler struct {
	memberService service.MemberService
}

// NewMemberHandler 创建一个新的 MemberHandler 实例。
func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// UploadCSV 导入 CSV 格式的成员名册。
func (h *MemberHandler) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "缺少上传文件 file")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		abort(c, "打开 CSV", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		abort(c, "读取 CSV", err)
		return
	}

	res, err := h.memberService.ImportCSV(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		abort(c, "导入 CSV "+fileHeader.Filename, err)
		return
	}
	log.Infof("CSV '%s' 导入完成: %d 条成功, %d 条错误", fileHeader.Filename, res.Imported, len(res.Errors))

	var rowErrors []string
	if len(res.Errors) > 0 {
		rowErrors = res.Errors
	}
	ok(c, res.Message, gin.H{
		"status":   "success",
		"message":  res.Message,
		"imported": res.Imported,
		"errors":   rowErrors,
	})
}

// List 列出所有成员。
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.memberService.List(c.Request.Context())
	if err != nil {
		abort(c, "列出成员", err)
		return
	}
	ok(c, "success", gin.H{"status": "success", "total": len(members), "members": members})
}
