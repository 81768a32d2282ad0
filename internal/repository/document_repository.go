// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentFilter 是文档列表的过滤与分页条件。
type DocumentFilter struct {
	Skip         int
	Limit        int
	DocumentType string
	Category     string
	Search       string
}

// DocumentRepository 接口定义了文档记录的持久化操作。
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uint) (*model.Document, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Document, error)
	FindAll(ctx context.Context) ([]model.Document, error)
	List(ctx context.Context, f DocumentFilter) ([]model.Document, error)
	FindByType(ctx context.Context, docType model.DocumentType) ([]model.Document, error)
	SearchText(ctx context.Context, query string, limit int) ([]model.Document, error)
	Latest(ctx context.Context, n int) ([]model.Document, error)
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	UpdateTags(ctx context.Context, id uint, tags []string) error
	UpdateCategory(ctx context.Context, id uint, category string) error
	UpdateAIFields(ctx context.Context, id uint, summary string, insights map[string]any) (bool, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountProcessed(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]model.GroupCount, error)
	TotalSize(ctx context.Context) (int64, error)
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const latestOrder = "uploaded_at DESC, id DESC"

// Create 保存一条新的文档记录。
func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindByID 按 ID 查找文档，不存在时返回 gorm.ErrRecordNotFound。
func (r *documentRepository) FindByID(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByIDs 批量查找文档，结果按 ids 的顺序排列，不存在的 ID 被跳过。
func (r *documentRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Document, error) {
	if len(ids) == 0 {
		return []model.Document{}, nil
	}
	var docs []model.Document
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	out := make([]model.Document, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindAll 返回全部文档。
func (r *documentRepository) FindAll(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).Order("id").Find(&docs).Error
	return docs, err
}

// List 按上传时间倒序分页列出文档。
func (r *documentRepository) List(ctx context.Context, f DocumentFilter) ([]model.Document, error) {
	q := r.db.WithContext(ctx).Model(&model.Document{})
	if f.DocumentType != "" {
		q = q.Where("document_type = ?", f.DocumentType)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		q = q.Where("LOWER(search_index) LIKE ?", containsPattern(f.Search))
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	var docs []model.Document
	err := q.Order(latestOrder).Offset(f.Skip).Limit(f.Limit).Find(&docs).Error
	return docs, err
}

// FindByType 返回指定类型的文档，按上传时间倒序。
func (r *documentRepository) FindByType(ctx context.Context, docType model.DocumentType) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).Where("document_type = ?", docType).Order(latestOrder).Find(&docs).Error
	return docs, err
}

// SearchText 在文件名、全文与摘要中做子串匹配。
func (r *documentRepository) SearchText(ctx context.Context, query string, limit int) ([]model.Document, error) {
	p := containsPattern(query)
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("LOWER(filename) LIKE ? OR LOWER(full_text) LIKE ? OR LOWER(summary) LIKE ?", p, p, p).
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// Latest 返回最近上传的 n 个文档。
func (r *documentRepository) Latest(ctx context.Context, n int) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).Order(latestOrder).Limit(n).Find(&docs).Error
	return docs, err
}

// ExistsByFilename 报告是否已存在同名文档。
func (r *documentRepository) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Where("filename = ?", filename).Count(&count).Error
	return count > 0, err
}

// UpdateTags 整体替换文档标签。
func (r *documentRepository) UpdateTags(ctx context.Context, id uint, tags []string) error {
	return r.updateColumns(ctx, id, map[string]any{"tags": datatypes.JSONSlice[string](tags)})
}

// UpdateCategory 修改文档分类。
func (r *documentRepository) UpdateCategory(ctx context.Context, id uint, category string) error {
	return r.updateColumns(ctx, id, map[string]any{"category": category})
}

func (r *documentRepository) updateColumns(ctx context.Context, id uint, cols map[string]any) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateAIFields 仅在 ai_summary 仍为空时写入 AI 字段，返回是否写入。
func (r *documentRepository) UpdateAIFields(ctx context.Context, id uint, summary string, insights map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND ai_summary IS NULL", id).
		Updates(map[string]any{
			"ai_summary":  summary,
			"ai_insights": datatypes.JSONMap(insights),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete 物理删除文档记录。
func (r *documentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Document{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count 返回文档总数。
func (r *documentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&n).Error
	return n, err
}

// CountProcessed 返回已处理的文档数。
func (r *documentRepository) CountProcessed(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Where("processed = ?", true).Count(&n).Error
	return n, err
}

// CountByType 按文档类型分组计数。
func (r *documentRepository) CountByType(ctx context.Context) ([]model.GroupCount, error) {
	var rows []model.GroupCount
	err := r.db.WithContext(ctx).Model(&model.Document{}).
		Select("document_type AS value, COUNT(*) AS count").
		Group("document_type").
		Order("count DESC, value ASC").
		Scan(&rows).Error
	return rows, err
}

// TotalSize 返回所有文档的字节总数。
func (r *documentRepository) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Select("COALESCE(SUM(file_size), 0)").Scan(&total).Error
	return total, err
}
