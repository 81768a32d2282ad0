package repository

import (
	"context"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"gorm.io/gorm"
)

// CollectionRepository 接口定义了文档集合的持久化操作。
type CollectionRepository interface {
	Create(ctx context.Context, c *model.DocumentCollection) error
	FindByID(ctx context.Context, id uint) (*model.DocumentCollection, error)
	FindActive(ctx context.Context) ([]model.DocumentCollection, error)
	UpdateDocumentIDs(ctx context.Context, c *model.DocumentCollection) error
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository 创建一个新的 CollectionRepository 实例。
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Create(ctx context.Context, c *model.DocumentCollection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *collectionRepository) FindByID(ctx context.Context, id uint) (*model.DocumentCollection, error) {
	var c model.DocumentCollection
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectionRepository) FindActive(ctx context.Context) ([]model.DocumentCollection, error) {
	var cs []model.DocumentCollection
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&cs).Error
	return cs, err
}

// UpdateDocumentIDs 只写回集合的文档 ID 列表。
func (r *collectionRepository) UpdateDocumentIDs(ctx context.Context, c *model.DocumentCollection) error {
	return r.db.WithContext(ctx).Model(c).Update("document_ids", c.DocumentIDs).Error
}
