package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/stretchr/testify/require"
)

func seededDocs() *memDocRepo {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := &memDocRepo{}
	for i, d := range []model.Document{
		{Filename: "po-1.pdf", DocumentType: model.TypeHIPMIPO, FileSize: 1024 * 1024, Processed: true, SearchIndex: "po-1.pdf peraturan"},
		{Filename: "laporan.pdf", DocumentType: model.TypeReport, FileSize: 512 * 1024, Processed: true, SearchIndex: "laporan.pdf kegiatan"},
		{Filename: "lain.pdf", FileSize: 512 * 1024, SearchIndex: "lain.pdf"},
	} {
		d.UploadedAt = base.Add(time.Duration(i) * time.Hour)
		doc := d
		_ = repo.Create(context.Background(), &doc)
	}
	return repo
}

func TestUploadTrimsOptionalFields(t *testing.T) {
	repo := &memDocRepo{}
	ing := &recordingIngester{repo: repo}
	svc := NewDocumentService(repo, ing, fakeSigner{}, nil)

	doc, err := svc.Upload(context.Background(), UploadInput{
		Data: []byte("%PDF-"), Filename: "a.pdf", Category: "  ", Tags: []string{"x"}, EnrichWithAI: true, UploadedBy: "admin",
	})
	require.NoError(t, err)
	require.Equal(t, uint(1), doc.ID)
	require.Len(t, ing.requests, 1)
	require.Nil(t, ing.requests[0].Category)
	require.Equal(t, "admin", *ing.requests[0].UploadedBy)
	require.True(t, ing.requests[0].EnrichWithAI)
}

func TestStatsAndTypes(t *testing.T) {
	svc := NewDocumentService(seededDocs(), nil, fakeSigner{}, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalDocuments)
	require.Equal(t, int64(2), stats.ProcessedDocuments)
	require.Equal(t, int64(1), stats.UnprocessedDocuments)
	require.Equal(t, map[string]int64{"HIPMI_PO": 1, "REPORT": 1, "UNKNOWN": 1}, stats.DocumentsByType)
	require.Equal(t, int64(2*1024*1024), stats.TotalStorageBytes)
	require.Equal(t, 2.0, stats.TotalStorageMB)

	types, err := svc.Types(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 3)
	var other *TypeCount
	for i := range types {
		if types[i].Type == "OTHER" {
			other = &types[i]
		}
	}
	require.NotNil(t, other)
	require.Equal(t, int64(1), other.Count)
	require.Equal(t, model.TypeOther.Info().Name, other.Name)
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	idx := &fakeIndex{err: errors.New("es down")}
	svc := NewDocumentService(seededDocs(), nil, fakeSigner{}, idx)

	require.NoError(t, svc.Delete(context.Background(), 2))
	require.Equal(t, []uint{2}, idx.deleted)

	err := svc.Delete(context.Background(), 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTagsAndCategory(t *testing.T) {
	svc := NewDocumentService(seededDocs(), nil, fakeSigner{}, nil)

	doc, err := svc.UpdateTags(context.Background(), 1, []string{"a", "a"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "a"}, []string(doc.Tags))

	doc, err = svc.UpdateCategory(context.Background(), 1, "Regulasi")
	require.NoError(t, err)
	require.Equal(t, "Regulasi", *doc.Category)

	_, err = svc.UpdateCategory(context.Background(), 99, "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchIndexed(t *testing.T) {
	ctx := context.Background()
	_, err := NewDocumentService(seededDocs(), nil, fakeSigner{}, nil).SearchIndexed(ctx, "po")
	require.ErrorIs(t, err, ErrSearchIndexDisabled)

	svc := NewDocumentService(seededDocs(), nil, fakeSigner{}, &fakeIndex{ids: []uint{3, 42, 1}})
	docs, err := svc.SearchIndexed(ctx, "po")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, uint(3), docs[0].ID)
	require.Equal(t, uint(1), docs[1].ID)
}

func TestDownloadURL(t *testing.T) {
	repo := seededDocs()
	repo.docs[0].FilePath = "uploads/po-1.pdf"
	svc := NewDocumentService(repo, nil, fakeSigner{}, nil)

	info, err := svc.DownloadURL(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "po-1.pdf", info.FileName)
	require.Equal(t, "http://minio.local/uploads/po-1.pdf?sig=1", info.DownloadURL)
}

func TestListNewestFirst(t *testing.T) {
	svc := NewDocumentService(seededDocs(), nil, fakeSigner{}, nil)
	docs, err := svc.List(context.Background(), repository.DocumentFilter{Search: "PDF"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, "lain.pdf", docs[0].Filename)
}

func TestDocumentProjections(t *testing.T) {
	doc := &model.Document{
		ID: 7, Filename: "sk.pdf", DocumentType: model.TypeHIPMISK, FileSize: 3 * 1024 * 1024,
		FullText: "teks", Keywords: []string{"a", "b"}, TablesData: []model.Table{{Page: 1}},
		UploadedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	summary := DocumentSummary(doc)
	require.Equal(t, 3.0, summary["file_size_mb"])
	require.Equal(t, 2, summary["keywords_count"])
	require.Equal(t, true, summary["has_tables"])
	require.Equal(t, []string{}, summary["tags"])

	detail := DocumentDetail(doc)
	stats := detail["content_stats"].(map[string]any)
	require.Equal(t, 4, stats["text_length"])
	require.Equal(t, 1, stats["table_count"])
	require.Contains(t, detail["document"], "full_text")
}
