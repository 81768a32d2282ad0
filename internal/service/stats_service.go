package service

import (
	"context"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
)

// StatsOverview 是仪表盘的汇总数据。
type StatsOverview struct {
	TotalDokumen       int64   `json:"total_dokumen"`
	ProcessedDocuments int64   `json:"processed_documents"`
	TotalAnggota       int64   `json:"total_anggota"`
	TotalStorageMB     float64 `json:"total_storage_mb"`
	LatestDocument     *string `json:"latest_document"`
	LastUpdated        *string `json:"last_updated"`
}

// StatsService 定义了仪表盘统计操作。
type StatsService interface {
	Overview(ctx context.Context) (*StatsOverview, error)
}

type statsService struct {
	docRepo    repository.DocumentRepository
	memberRepo repository.MemberRepository
}

// NewStatsService 创建一个新的 StatsService 实例。
func NewStatsService(docRepo repository.DocumentRepository, memberRepo repository.MemberRepository) StatsService {
	return &statsService{docRepo: docRepo, memberRepo: memberRepo}
}

func (s *statsService) Overview(ctx context.Context) (*StatsOverview, error) {
	total, err := s.docRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.docRepo.CountProcessed(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	size, err := s.docRepo.TotalSize(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.docRepo.Latest(ctx, 1)
	if err != nil {
		return nil, err
	}

	out := &StatsOverview{
		TotalDokumen:       total,
		ProcessedDocuments: processed,
		TotalAnggota:       members,
		TotalStorageMB:     model.Round(float64(size)/(1024*1024), 2),
	}
	if len(latest) > 0 {
		name := latest[0].Filename
		out.LatestDocument = &name
		out.LastUpdated = model.FormatTime(&latest[0].UploadedAt)
	}
	return out, nil
}
