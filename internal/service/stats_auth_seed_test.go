package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nggaadaotak/kintari-be/internal/config"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/pkg/hash"
	"github.com/nggaadaotak/kintari-be/pkg/token"
	"github.com/stretchr/testify/require"
)

func TestStatsOverview(t *testing.T) {
	ctx := context.Background()
	svc := NewStatsService(seededDocs(), &memMemberRepo{members: make([]model.Member, 4)})
	out, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.TotalDokumen)
	require.Equal(t, int64(2), out.ProcessedDocuments)
	require.Equal(t, int64(4), out.TotalAnggota)
	require.Equal(t, 2.0, out.TotalStorageMB)
	require.Equal(t, "lain.pdf", *out.LatestDocument)
	require.Equal(t, "2025-03-01T10:00:00", *out.LastUpdated)

	empty, err := NewStatsService(&memDocRepo{}, &memMemberRepo{}).Overview(ctx)
	require.NoError(t, err)
	require.Nil(t, empty.LatestDocument)
	require.Nil(t, empty.LastUpdated)
}

func TestAdminLogin(t *testing.T) {
	hashed, err := hash.HashPassword("rahasia")
	require.NoError(t, err)
	jwtManager := token.NewJWTManager("secret", 1)
	svc := NewAuthService(config.AuthConfig{Enabled: true, AdminUsername: "admin", AdminPasswordHash: hashed}, jwtManager)

	res, err := svc.Login(context.Background(), "admin", "rahasia")
	require.NoError(t, err)
	require.Equal(t, "Bearer", res.TokenType)
	claims, err := jwtManager.VerifyToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, token.RoleAdmin, claims.Role)

	_, err = svc.Login(context.Background(), "admin", "salah")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "root", "rahasia")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSeedImportDirSkipsKnownFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ad.pdf", "art.PDF", "rusak.pdf", "catatan.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "arsip.pdf"), 0o755))

	repo := &memDocRepo{}
	require.NoError(t, repo.Create(context.Background(), &model.Document{Filename: "ad.pdf"}))
	ing := &failingOn{recordingIngester: recordingIngester{repo: repo}, name: "rusak.pdf"}
	svc := NewSeedService(ing, repo)

	n, err := svc.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, ing.requests, 2)
	for _, req := range ing.requests {
		require.False(t, req.EnrichWithAI)
	}

	ok, err := svc.ImportFile(context.Background(), filepath.Join(dir, "art.PDF"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSeedFollowDrainsChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	repo := &memDocRepo{}
	ing := &recordingIngester{repo: repo}
	paths := make(chan string, 2)
	paths <- path
	paths <- path
	close(paths)

	NewSeedService(ing, repo).Follow(context.Background(), paths)
	require.Len(t, ing.requests, 1)
}

// failingOn 对指定文件名返回错误。
type failingOn struct {
	recordingIngester
	name string
}

func (f *failingOn) Ingest(ctx context.Context, req pipeline.IngestRequest) (*model.Document, error) {
	if req.Filename == f.name {
		f.requests = append(f.requests, req)
		return nil, errors.New("extraction failed")
	}
	return f.recordingIngester.Ingest(ctx, req)
}
