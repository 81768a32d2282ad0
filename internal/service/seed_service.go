package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

// SeedService 将本地目录中的 PDF 导入知识库。
type SeedService interface {
	ImportDir(ctx context.Context, dir string) (int, error)
	ImportFile(ctx context.Context, path string) (bool, error)
	Follow(ctx context.Context, paths <-chan string)
}

type seedService struct {
	ingester Ingester
	docRepo  repository.DocumentRepository
}

// NewSeedService 创建一个新的 SeedService 实例。
func NewSeedService(ingester Ingester, docRepo repository.DocumentRepository) SeedService {
	return &seedService{ingester: ingester, docRepo: docRepo}
}

// ImportDir 导入 dir 下所有尚未入库的 .pdf 文件，单个文件失败只记录日志。
func (s *seedService) ImportDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("读取种子目录失败: %w", err)
	}
	imported := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		ok, err := s.ImportFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			log.Warnf("[Seeder] 导入失败, 文件: %s, Error: %v", e.Name(), err)
			continue
		}
		if ok {
			imported++
		}
	}
	log.Infof("[Seeder] 目录导入完成, 目录: %s, 新增: %d", dir, imported)
	return imported, nil
}

// ImportFile 导入单个文件，文件名已存在时跳过并返回 false。
func (s *seedService) ImportFile(ctx context.Context, path string) (bool, error) {
	name := filepath.Base(path)
	exists, err := s.docRepo.ExistsByFilename(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	doc, err := s.ingester.Ingest(ctx, pipeline.IngestRequest{Data: data, Filename: name})
	if err != nil {
		return false, err
	}
	log.Infof("[Seeder] 已导入文件: %s, DocumentID: %d", name, doc.ID)
	return true, nil
}

// Follow 消费监听到的文件路径直到通道关闭。
func (s *seedService) Follow(ctx context.Context, paths <-chan string) {
	for path := range paths {
		if _, err := s.ImportFile(ctx, path); err != nil {
			log.Warnf("[Seeder] 导入失败, 文件: %s, Error: %v", path, err)
		}
	}
}
