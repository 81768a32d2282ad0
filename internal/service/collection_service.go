package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
)

// ErrCollectionNameRequired 表示创建集合时缺少名称。
var ErrCollectionNameRequired = errors.New("collection name is required")

// CreateCollectionInput 是创建集合的参数。
type CreateCollectionInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DocumentIDs []uint `json:"document_ids"`
	CreatedBy   string `json:"created_by"`
}

// CollectionService 接口定义了文档集合的业务操作。
type CollectionService interface {
	Create(ctx context.Context, in CreateCollectionInput) (*model.DocumentCollection, error)
	ListActive(ctx context.Context) ([]model.DocumentCollection, error)
	Documents(ctx context.Context, id uint) ([]model.Document, error)
	AddDocuments(ctx context.Context, id uint, documentIDs []uint) (*model.DocumentCollection, int, error)
}

type collectionService struct {
	collections repository.CollectionRepository
	docRepo     repository.DocumentRepository
}

// NewCollectionService 创建一个新的 CollectionService 实例。
func NewCollectionService(collections repository.CollectionRepository, docRepo repository.DocumentRepository) CollectionService {
	return &collectionService{collections: collections, docRepo: docRepo}
}

// Create 创建集合，文档 ID 按原样保存。
func (s *collectionService) Create(ctx context.Context, in CreateCollectionInput) (*model.DocumentCollection, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrCollectionNameRequired
	}
	ids := in.DocumentIDs
	if ids == nil {
		ids = []uint{}
	}
	c := &model.DocumentCollection{
		Name:        name,
		Description: in.Description,
		DocumentIDs: ids,
		CreatedBy:   optional(in.CreatedBy),
		IsActive:    true,
	}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *collectionService) ListActive(ctx context.Context) ([]model.DocumentCollection, error) {
	return s.collections.FindActive(ctx)
}

// Documents 返回集合内仍然存在的文档，顺序与集合中保存的 ID 一致。
func (s *collectionService) Documents(ctx context.Context, id uint) ([]model.Document, error) {
	c, err := s.collections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.docRepo.FindByIDs(ctx, c.DocumentIDs)
}

// AddDocuments 追加文档 ID（去重），返回更新后的集合和新增数量。
func (s *collectionService) AddDocuments(ctx context.Context, id uint, documentIDs []uint) (*model.DocumentCollection, int, error) {
	c, err := s.collections.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	added := c.AddDocuments(documentIDs)
	if added == 0 {
		return c, 0, nil
	}
	if err := s.collections.UpdateDocumentIDs(ctx, c); err != nil {
		return nil, 0, err
	}
	return c, added, nil
}
