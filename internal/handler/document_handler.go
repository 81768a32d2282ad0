package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/middleware"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/token"
)

// DocumentHandler 负责处理文档相关的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
	maxUploadBytes  int64
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。maxUploadMB <= 0 表示不限制大小。
func NewDocumentHandler(documentService service.DocumentService, maxUploadMB int64) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, maxUploadBytes: maxUploadMB << 20}
}

// Upload 接收 multipart 上传的 PDF 并执行摄取。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "缺少上传文件 file")
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("文件超过 %d MB 上限", h.maxUploadBytes>>20))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		abort(c, "打开上传文件", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		abort(c, "读取上传文件", err)
		return
	}

	enrich, _ := strconv.ParseBool(formOrQuery(c, "generate_ai_summary"))
	in := service.UploadInput{
		Data:         data,
		Filename:     fileHeader.Filename,
		Category:     formOrQuery(c, "category"),
		Tags:         splitTags(formOrQuery(c, "tags")),
		EnrichWithAI: enrich,
		UploadedBy:   uploader(c),
	}
	doc, err := h.documentService.Upload(c.Request.Context(), in)
	if err != nil {
		abort(c, "上传文档 "+fileHeader.Filename, err)
		return
	}

	log.Infof("文档 '%s' 上传成功, id=%d", doc.Filename, doc.ID)
	ok(c, "Document uploaded and processed successfully", gin.H{
		"status":   "success",
		"document": service.DocumentSummary(doc),
	})
}

// List 分页列出文档。
func (h *DocumentHandler) List(c *gin.Context) {
	skip, err1 := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, err2 := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err1 != nil || err2 != nil || skip < 0 || limit < 0 {
		fail(c, http.StatusBadRequest, "skip 与 limit 必须是非负整数")
		return
	}
	filter := repository.DocumentFilter{
		Skip:         skip,
		Limit:        limit,
		DocumentType: strings.ToUpper(strings.TrimSpace(c.Query("document_type"))),
		Category:     strings.TrimSpace(c.Query("category")),
		Search:       strings.TrimSpace(c.Query("search")),
	}
	docs, err := h.documentService.List(c.Request.Context(), filter)
	if err != nil {
		abort(c, "列出文档", err)
		return
	}
	ok(c, "success", gin.H{
		"total":     len(docs),
		"skip":      skip,
		"limit":     limit,
		"documents": service.DocumentDicts(docs),
		"filters": gin.H{
			"document_type": filter.DocumentType,
			"category":      filter.Category,
			"search":        filter.Search,
		},
	})
}

// Get 返回文档详情。
func (h *DocumentHandler) Get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), id)
	if err != nil {
		abort(c, "获取文档", err)
		return
	}
	ok(c, "success", service.DocumentDetail(doc))
}

// Download 返回文档原件的预签名下载链接。
func (h *DocumentHandler) Download(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	info, err := h.documentService.DownloadURL(c.Request.Context(), id)
	if err != nil {
		abort(c, "生成下载链接", err)
		return
	}
	ok(c, "文件下载链接生成成功", info)
}

// Delete 删除文档。
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		abort(c, "删除文档", err)
		return
	}
	log.Infof("文档 %d 已被 %s 删除", id, uploader(c))
	ok(c, "Document deleted successfully", nil)
}

// UpdateTags 用请求体中的 JSON 数组替换文档标签。
func (h *DocumentHandler) UpdateTags(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var tags []string
	if err := c.ShouldBindJSON(&tags); err != nil {
		fail(c, http.StatusBadRequest, "请求体必须是字符串数组")
		return
	}
	doc, err := h.documentService.UpdateTags(c.Request.Context(), id, tags)
	if err != nil {
		abort(c, "更新标签", err)
		return
	}
	ok(c, "Tags updated successfully", gin.H{"document": doc.ToDict()})
}

type categoryRequest struct {
	Category string `json:"category"`
}

// UpdateCategory 更新文档分类，分类可以放在 query 或 JSON 请求体中。
func (h *DocumentHandler) UpdateCategory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	category := c.Query("category")
	if category == "" && c.Request.ContentLength != 0 {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "无效的请求体")
			return
		}
		category = req.Category
	}
	doc, err := h.documentService.UpdateCategory(c.Request.Context(), id, category)
	if err != nil {
		abort(c, "更新分类", err)
		return
	}
	ok(c, "Category updated successfully", gin.H{"document": doc.ToDict()})
}

// Stats 返回知识库统计。
func (h *DocumentHandler) Stats(c *gin.Context) {
	stats, err := h.documentService.Stats(c.Request.Context())
	if err != nil {
		abort(c, "统计文档", err)
		return
	}
	ok(c, "success", gin.H{"status": "success", "stats": stats})
}

// Types 返回已出现的文档类型。
func (h *DocumentHandler) Types(c *gin.Context) {
	types, err := h.documentService.Types(c.Request.Context())
	if err != nil {
		abort(c, "统计文档类型", err)
		return
	}
	ok(c, "success", gin.H{"status": "success", "total_types": len(types), "types": types})
}

// Search 在文件名、正文和摘要中做子串搜索。
func (h *DocumentHandler) Search(c *gin.Context) {
	h.search(c, h.documentService.Search)
}

// SearchIndex 通过 Elasticsearch 检索文档。
func (h *DocumentHandler) SearchIndex(c *gin.Context) {
	h.search(c, h.documentService.SearchIndexed)
}

func (h *DocumentHandler) search(c *gin.Context, find func(ctx context.Context, q string) ([]model.Document, error)) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, "查询参数 q 不能为空")
		return
	}
	docs, err := find(c.Request.Context(), q)
	if err != nil {
		abort(c, "搜索文档", err)
		return
	}
	ok(c, "success", gin.H{
		"status":        "success",
		"query":         q,
		"results_count": len(docs),
		"documents":     service.DocumentDicts(docs),
	})
}

// ByType 按类型列出文档。
func (h *DocumentHandler) ByType(c *gin.Context) {
	docType := model.DocumentType(strings.ToUpper(c.Param("type")))
	if !docType.Valid() {
		fail(c, http.StatusBadRequest, "未知的文档类型: "+c.Param("type"))
		return
	}
	docs, err := h.documentService.ByType(c.Request.Context(), docType)
	if err != nil {
		abort(c, "按类型列出文档", err)
		return
	}
	ok(c, "success", gin.H{
		"status":        "success",
		"document_type": docType,
		"type_info":     docType.Info(),
		"count":         len(docs),
		"documents":     service.DocumentDicts(docs),
	})
}

func formOrQuery(c *gin.Context, key string) string {
	if v, found := c.GetPostForm(key); found {
		return v
	}
	return c.Query(key)
}

// splitTags 解析逗号分隔的标签，忽略空项。
func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// uploader 返回已鉴权的管理员用户名，未开启鉴权时为空。
func uploader(c *gin.Context) string {
	if v, exists := c.Get(middleware.ClaimsKey); exists {
		if claims, is := v.(*token.CustomClaims); is {
			return claims.Username
		}
	}
	return ""
}
