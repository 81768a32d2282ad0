package model

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentCollection 定义了 document_collections 表的 ORM 模型。
// DocumentIDs 是弱引用：文档删除后其 ID 仍保留在集合中，读取时过滤。
type DocumentCollection struct {
	ID          uint                      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string                    `gorm:"type:varchar(255);not null" json:"name"`
	Description string                    `gorm:"type:text" json:"description"`
	DocumentIDs datatypes.JSONSlice[uint] `gorm:"type:json" json:"document_ids"`
	CreatedAt   time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy   *string                   `gorm:"type:varchar(100)" json:"created_by"`
	IsActive    bool                      `gorm:"not null;default:true" json:"is_active"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentCollection) TableName() string {
	return "document_collections"
}

// AddDocuments 追加尚未包含的 ID，保持已有顺序，返回新增数量。
func (c *DocumentCollection) AddDocuments(ids []uint) int {
	seen := make(map[uint]struct{}, len(c.DocumentIDs)+len(ids))
	for _, id := range c.DocumentIDs {
		seen[id] = struct{}{}
	}
	added := 0
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		c.DocumentIDs = append(c.DocumentIDs, id)
		added++
	}
	return added
}

// ToDict 返回集合的 API 投影。
func (c *DocumentCollection) ToDict() map[string]any {
	return map[string]any{
		"id":             c.ID,
		"name":           c.Name,
		"description":    c.Description,
		"document_count": len(c.DocumentIDs),
		"created_at":     FormatTime(&c.CreatedAt),
		"is_active":      c.IsActive,
	}
}
