// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"gorm.io/gorm"
)

// ErrNotFound 表示记录不存在。
var ErrNotFound = gorm.ErrRecordNotFound

// ErrSearchIndexDisabled 表示未配置检索索引。
var ErrSearchIndexDisabled = errors.New("search index is not configured")

const (
	searchResultLimit   = 20
	downloadURLValidity = time.Hour
)

// Ingester 执行一次文档入库。
type Ingester interface {
	Ingest(ctx context.Context, req pipeline.IngestRequest) (*model.Document, error)
}

// URLSigner 为存储对象生成下载链接。
type URLSigner interface {
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// SearchIndex 是二级检索索引的读与删操作。
type SearchIndex interface {
	Search(ctx context.Context, query string, size int) ([]uint, error)
	DeleteDocument(ctx context.Context, documentID uint) error
}

// UploadInput 是一次上传请求。
type UploadInput struct {
	Data         []byte
	Filename     string
	Category     string
	Tags         []string
	EnrichWithAI bool
	UploadedBy   string
}

// DownloadInfoDTO 封装了文件下载链接所需的信息。
type DownloadInfoDTO struct {
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
	FileSize    int64  `json:"fileSize"`
}

// DocumentStats 是知识库的整体统计。
type DocumentStats struct {
	TotalDocuments       int64            `json:"total_documents"`
	ProcessedDocuments   int64            `json:"processed_documents"`
	UnprocessedDocuments int64            `json:"unprocessed_documents"`
	DocumentsByType      map[string]int64 `json:"documents_by_type"`
	TotalStorageBytes    int64            `json:"total_storage_bytes"`
	TotalStorageMB       float64          `json:"total_storage_mb"`
}

// TypeCount 是一种文档类型及其数量。
type TypeCount struct {
	Type string `json:"type"`
	model.TypeInfo
	Count int64 `json:"count"`
}

// DocumentService 接口定义了文档管理相关的业务操作。
type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)
	List(ctx context.Context, f repository.DocumentFilter) ([]model.Document, error)
	Get(ctx context.Context, id uint) (*model.Document, error)
	DownloadURL(ctx context.Context, id uint) (*DownloadInfoDTO, error)
	Delete(ctx context.Context, id uint) error
	UpdateTags(ctx context.Context, id uint, tags []string) (*model.Document, error)
	UpdateCategory(ctx context.Context, id uint, category string) (*model.Document, error)
	Stats(ctx context.Context) (*DocumentStats, error)
	Types(ctx context.Context) ([]TypeCount, error)
	Search(ctx context.Context, query string) ([]model.Document, error)
	SearchIndexed(ctx context.Context, query string) ([]model.Document, error)
	ByType(ctx context.Context, docType model.DocumentType) ([]model.Document, error)
}

type documentService struct {
	docRepo  repository.DocumentRepository
	ingester Ingester
	signer   URLSigner
	index    SearchIndex
}

// NewDocumentService 创建一个新的 DocumentService 实例。index 为 nil 时不使用检索索引。
func NewDocumentService(docRepo repository.DocumentRepository, ingester Ingester, signer URLSigner, index SearchIndex) DocumentService {
	return &documentService{
		docRepo:  docRepo,
		ingester: ingester,
		signer:   signer,
		index:    index,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Upload 将上传的文件交给入库流水线。
func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	return s.ingester.Ingest(ctx, pipeline.IngestRequest{
		Data:         in.Data,
		Filename:     in.Filename,
		Category:     optional(in.Category),
		Tags:         in.Tags,
		EnrichWithAI: in.EnrichWithAI,
		UploadedBy:   optional(in.UploadedBy),
	})
}

func (s *documentService) List(ctx context.Context, f repository.DocumentFilter) ([]model.Document, error) {
	return s.docRepo.List(ctx, f)
}

func (s *documentService) Get(ctx context.Context, id uint) (*model.Document, error) {
	return s.docRepo.FindByID(ctx, id)
}

// DownloadURL 为文档原文件生成限时下载链接。
func (s *documentService) DownloadURL(ctx context.Context, id uint) (*DownloadInfoDTO, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.signer.PresignedURL(ctx, doc.FilePath, downloadURLValidity)
	if err != nil {
		return nil, fmt.Errorf("生成下载链接失败: %w", err)
	}
	return &DownloadInfoDTO{FileName: doc.Filename, DownloadURL: url, FileSize: doc.FileSize}, nil
}

// Delete 删除文档记录，并尽力从检索索引中移除。
func (s *documentService) Delete(ctx context.Context, id uint) error {
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteDocument(ctx, id); err != nil {
			log.Warnf("从检索索引删除文档失败, DocumentID: %d, Error: %v", id, err)
		}
	}
	return nil
}

func (s *documentService) UpdateTags(ctx context.Context, id uint, tags []string) (*model.Document, error) {
	if tags == nil {
		tags = []string{}
	}
	if err := s.docRepo.UpdateTags(ctx, id, tags); err != nil {
		return nil, err
	}
	return s.docRepo.FindByID(ctx, id)
}

func (s *documentService) UpdateCategory(ctx context.Context, id uint, category string) (*model.Document, error) {
	if err := s.docRepo.UpdateCategory(ctx, id, category); err != nil {
		return nil, err
	}
	return s.docRepo.FindByID(ctx, id)
}

// Stats 汇总文档数量、类型分布与存储占用。
func (s *documentService) Stats(ctx context.Context) (*DocumentStats, error) {
	total, err := s.docRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.docRepo.CountProcessed(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.docRepo.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	size, err := s.docRepo.TotalSize(ctx)
	if err != nil {
		return nil, err
	}

	types := make(map[string]int64, len(byType))
	for _, row := range byType {
		key := row.Value
		if key == "" {
			key = "UNKNOWN"
		}
		types[key] += row.Count
	}
	return &DocumentStats{
		TotalDocuments:       total,
		ProcessedDocuments:   processed,
		UnprocessedDocuments: total - processed,
		DocumentsByType:      types,
		TotalStorageBytes:    size,
		TotalStorageMB:       model.Round(float64(size)/(1024*1024), 2),
	}, nil
}

// Types 列出库中出现过的文档类型及数量。
func (s *documentService) Types(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.docRepo.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TypeCount, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		t := row.Value
		if t == "" {
			t = string(model.TypeOther)
		}
		if i, ok := index[t]; ok {
			out[i].Count += row.Count
			continue
		}
		index[t] = len(out)
		out = append(out, TypeCount{Type: t, TypeInfo: model.DocumentType(t).Info(), Count: row.Count})
	}
	return out, nil
}

// Search 在文件名、全文和摘要中查找，最多返回 20 条。
func (s *documentService) Search(ctx context.Context, query string) ([]model.Document, error) {
	return s.docRepo.SearchText(ctx, query, searchResultLimit)
}

// SearchIndexed 使用检索索引按相关度查找文档。
func (s *documentService) SearchIndexed(ctx context.Context, query string) ([]model.Document, error) {
	if s.index == nil {
		return nil, ErrSearchIndexDisabled
	}
	ids, err := s.index.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("检索索引查询失败: %w", err)
	}
	return s.docRepo.FindByIDs(ctx, ids)
}

func (s *documentService) ByType(ctx context.Context, docType model.DocumentType) ([]model.Document, error) {
	return s.docRepo.FindByType(ctx, docType)
}

// DocumentSummary 返回上传成功后的文档概要。
func DocumentSummary(doc *model.Document) map[string]any {
	return map[string]any{
		"id":             doc.ID,
		"filename":       doc.Filename,
		"file_size_mb":   doc.FileSizeMB(),
		"document_type":  doc.DocumentType,
		"type_info":      doc.DocumentType.Info(),
		"category":       doc.Category,
		"tags":           nonNilStrings(doc.Tags),
		"page_count":     doc.PageCount,
		"keywords_count": len(doc.Keywords),
		"has_tables":     len(doc.TablesData) > 0,
		"processed":      doc.Processed,
		"uploaded_at":    model.FormatTime(&doc.UploadedAt),
	}
}

// DocumentDetail 返回文档完整信息及内容统计。
func DocumentDetail(doc *model.Document) map[string]any {
	return map[string]any{
		"document":  doc.ToDictFull(),
		"type_info": doc.DocumentType.Info(),
		"content_stats": map[string]any{
			"text_length":   len([]rune(doc.FullText)),
			"keyword_count": len(doc.Keywords),
			"table_count":   len(doc.TablesData),
			"entity_counts": doc.Entities().Counts(),
		},
	}
}

// DocumentDicts 将文档列表转换为列表投影。
func DocumentDicts(docs []model.Document) []map[string]any {
	out := make([]map[string]any, len(docs))
	for i := range docs {
		out[i] = docs[i].ToDict()
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
