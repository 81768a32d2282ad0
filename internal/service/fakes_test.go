package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/intent"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"gorm.io/gorm"
)

func sp(s string) *string { return &s }
func ip(i int) *int       { return &i }

// memDocRepo 在内存中实现 repository.DocumentRepository。
type memDocRepo struct {
	mu   sync.Mutex
	docs []model.Document
	next uint
}

func (r *memDocRepo) Create(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	doc.ID = r.next
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *memDocRepo) find(id uint) int {
	for i := range r.docs {
		if r.docs[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *memDocRepo) FindByID(_ context.Context, id uint) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		return nil, gorm.ErrRecordNotFound
	}
	d := r.docs[i]
	return &d, nil
}

func (r *memDocRepo) FindByIDs(_ context.Context, ids []uint) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Document{}
	for _, id := range ids {
		if i := r.find(id); i >= 0 {
			out = append(out, r.docs[i])
		}
	}
	return out, nil
}

func (r *memDocRepo) FindAll(context.Context) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Document(nil), r.docs...), nil
}

func (r *memDocRepo) latest() []model.Document {
	out := append([]model.Document(nil), r.docs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *memDocRepo) List(_ context.Context, f repository.DocumentFilter) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Document{}
	for _, d := range r.latest() {
		if f.DocumentType != "" && string(d.DocumentType) != f.DocumentType {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(d.SearchIndex), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *memDocRepo) FindByType(_ context.Context, t model.DocumentType) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Document{}
	for _, d := range r.latest() {
		if d.DocumentType == t {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) SearchText(_ context.Context, q string, limit int) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Document{}
	for _, d := range r.docs {
		if strings.Contains(strings.ToLower(d.Filename+d.FullText+d.Summary), strings.ToLower(q)) && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) Latest(_ context.Context, n int) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.latest()
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r *memDocRepo) ExistsByFilename(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.Filename == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memDocRepo) UpdateTags(_ context.Context, id uint, tags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	r.docs[i].Tags = tags
	return nil
}

func (r *memDocRepo) UpdateCategory(_ context.Context, id uint, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	r.docs[i].Category = &category
	return nil
}

func (r *memDocRepo) UpdateAIFields(_ context.Context, id uint, summary string, insights map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 || r.docs[i].AISummary != nil {
		return false, nil
	}
	r.docs[i].AISummary = &summary
	r.docs[i].AIInsights = insights
	return true, nil
}

func (r *memDocRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	r.docs = append(r.docs[:i], r.docs[i+1:]...)
	return nil
}

func (r *memDocRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.docs)), nil
}

func (r *memDocRepo) CountProcessed(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.docs {
		if d.Processed {
			n++
		}
	}
	return n, nil
}

func (r *memDocRepo) CountByType(context.Context) ([]model.GroupCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, d := range r.docs {
		counts[string(d.DocumentType)]++
	}
	return sortedGroups(counts), nil
}

func (r *memDocRepo) TotalSize(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.docs {
		n += d.FileSize
	}
	return n, nil
}

func sortedGroups(counts map[string]int64) []model.GroupCount {
	rows := make([]model.GroupCount, 0, len(counts))
	for v, c := range counts {
		rows = append(rows, model.GroupCount{Value: v, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Value < rows[j].Value
	})
	return rows
}

// memMemberRepo 在内存中实现 repository.MemberRepository。
type memMemberRepo struct {
	members []model.Member
	err     error
}

func (r *memMemberRepo) FindAll(context.Context) ([]model.Member, error) {
	return r.members, r.err
}

func (r *memMemberRepo) Count(context.Context) (int64, error) {
	return int64(len(r.members)), r.err
}

func (r *memMemberRepo) BatchCreate(_ context.Context, members []model.Member) error {
	if r.err != nil {
		return r.err
	}
	for _, m := range members {
		m.ID = uint(len(r.members) + 1)
		r.members = append(r.members, m)
	}
	return nil
}

func (r *memMemberRepo) CountContains(context.Context, string, string) (int64, error) {
	return 0, errors.New("not used")
}

func (r *memMemberRepo) CountEquals(context.Context, string, string) (int64, error) {
	return 0, errors.New("not used")
}

func (r *memMemberRepo) GroupCounts(context.Context, string) ([]model.GroupCount, error) {
	return nil, errors.New("not used")
}

func (r *memMemberRepo) FirstByNameContains(context.Context, string) (*model.Member, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *memMemberRepo) SumEmployees(context.Context) (int64, int64, error) {
	return 0, 0, errors.New("not used")
}

// memCollectionRepo 在内存中实现 repository.CollectionRepository。
type memCollectionRepo struct {
	items   []model.DocumentCollection
	updates int
}

func (r *memCollectionRepo) Create(_ context.Context, c *model.DocumentCollection) error {
	c.ID = uint(len(r.items) + 1)
	c.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.items = append(r.items, *c)
	return nil
}

func (r *memCollectionRepo) FindByID(_ context.Context, id uint) (*model.DocumentCollection, error) {
	for _, c := range r.items {
		if c.ID == id {
			cp := c
			cp.DocumentIDs = append([]uint(nil), c.DocumentIDs...)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCollectionRepo) FindActive(context.Context) ([]model.DocumentCollection, error) {
	out := []model.DocumentCollection{}
	for _, c := range r.items {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCollectionRepo) UpdateDocumentIDs(_ context.Context, c *model.DocumentCollection) error {
	r.updates++
	for i := range r.items {
		if r.items[i].ID == c.ID {
			r.items[i].DocumentIDs = append([]uint(nil), c.DocumentIDs...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// memConversations 在内存中实现 repository.ConversationRepository。
type memConversations struct {
	sessions map[string][]model.ChatMessage
}

func (r *memConversations) GetHistory(_ context.Context, id string) ([]model.ChatMessage, error) {
	if h, ok := r.sessions[id]; ok {
		return h, nil
	}
	return []model.ChatMessage{}, nil
}

func (r *memConversations) Append(_ context.Context, id string, msgs ...model.ChatMessage) error {
	if r.sessions == nil {
		r.sessions = map[string][]model.ChatMessage{}
	}
	r.sessions[id] = append(r.sessions[id], msgs...)
	return nil
}

// scriptedLLM 返回预设回答并记录提示词。
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (c *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.reply, c.err
}

// stubRouter 返回预设的规则答案。
type stubRouter struct {
	answer *intent.Answer
	err    error
}

func (r stubRouter) Route(context.Context, string) (*intent.Answer, error) {
	return r.answer, r.err
}

// recordingIngester 记录入库请求并写入 memDocRepo。
type recordingIngester struct {
	repo     *memDocRepo
	requests []pipeline.IngestRequest
	err      error
}

func (i *recordingIngester) Ingest(ctx context.Context, req pipeline.IngestRequest) (*model.Document, error) {
	i.requests = append(i.requests, req)
	if i.err != nil {
		return nil, i.err
	}
	doc := &model.Document{Filename: req.Filename, FileSize: int64(len(req.Data)), Processed: true, Category: req.Category, Tags: req.Tags}
	if err := i.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type fakeSigner struct{}

func (fakeSigner) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://minio.local/" + key + "?sig=1", nil
}

type fakeIndex struct {
	ids     []uint
	deleted []uint
	err     error
}

func (f *fakeIndex) Search(context.Context, string, int) ([]uint, error) {
	return f.ids, f.err
}

func (f *fakeIndex) DeleteDocument(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return f.err
}
