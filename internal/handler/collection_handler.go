package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/service"
)

// CollectionHandler 负责处理文档集合相关的 API 请求。
type CollectionHandler struct {
	collectionService service.CollectionService
}

// NewCollectionHandler 创建一个新的 CollectionHandler 实例。
func NewCollectionHandler(collectionService service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// Create 创建一个文档集合。
func (h *CollectionHandler) Create(c *gin.Context) {
	var in service.CreateCollectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "无效的请求体")
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = uploader(c)
	}
	coll, err := h.collectionService.Create(c.Request.Context(), in)
	if err != nil {
		abort(c, "创建集合", err)
		return
	}
	ok(c, "Collection created successfully", gin.H{"collection": coll.ToDict()})
}

// List 列出所有启用的集合。
func (h *CollectionHandler) List(c *gin.Context) {
	colls, err := h.collectionService.ListActive(c.Request.Context())
	if err != nil {
		abort(c, "列出集合", err)
		return
	}
	out := make([]map[string]any, 0, len(colls))
	for i := range colls {
		out = append(out, colls[i].ToDict())
	}
	ok(c, "success", gin.H{"total": len(out), "collections": out})
}

// Documents 列出集合内的文档。
func (h *CollectionHandler) Documents(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	docs, err := h.collectionService.Documents(c.Request.Context(), id)
	if err != nil {
		abort(c, "列出集合文档", err)
		return
	}
	ok(c, "success", gin.H{
		"collection_id":  id,
		"document_count": len(docs),
		"documents":      service.DocumentDicts(docs),
	})
}

// AddDocuments 把请求体中的文档 ID 加入集合，已存在的 ID 会被忽略。
func (h *CollectionHandler) AddDocuments(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var ids []uint
	if err := c.ShouldBindJSON(&ids); err != nil {
		fail(c, http.StatusBadRequest, "请求体必须是文档 ID 数组")
		return
	}
	coll, added, err := h.collectionService.AddDocuments(c.Request.Context(), id, ids)
	if err != nil {
		abort(c, "添加集合文档", err)
		return
	}
	ok(c, fmt.Sprintf("Added %d document(s) to collection", added), gin.H{
		"added":      added,
		"collection": collectionDict(coll),
	})
}

func collectionDict(coll *model.DocumentCollection) map[string]any {
	if coll == nil {
		return nil
	}
	return coll.ToDict()
}
