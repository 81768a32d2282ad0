package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nggaadaotak/kintari-be/internal/middleware"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/pipeline"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/internal/service"
	"github.com/nggaadaotak/kintari-be/pkg/token"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 以下假实现只覆盖测试用到的方法，其余方法调用时会 panic。

type fakeDocs struct {
	service.DocumentService
	uploaded  service.UploadInput
	uploadErr error
	filter    repository.DocumentFilter
	docs      map[uint]*model.Document
	deleted   []uint
	category  string
}

func (f *fakeDocs) Upload(_ context.Context, in service.UploadInput) (*model.Document, error) {
	f.uploaded = in
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &model.Document{ID: 7, Filename: in.Filename, FileSize: int64(len(in.Data)), DocumentType: model.TypeReport, Tags: in.Tags}, nil
}

func (f *fakeDocs) List(_ context.Context, filter repository.DocumentFilter) ([]model.Document, error) {
	f.filter = filter
	return []model.Document{{ID: 1, Filename: "a.pdf"}}, nil
}

func (f *fakeDocs) Get(_ context.Context, id uint) (*model.Document, error) {
	if doc, found := f.docs[id]; found {
		return doc, nil
	}
	return nil, service.ErrNotFound
}

func (f *fakeDocs) Delete(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocs) UpdateCategory(_ context.Context, id uint, category string) (*model.Document, error) {
	f.category = category
	return &model.Document{ID: id, Category: &category}, nil
}

func (f *fakeDocs) Search(_ context.Context, q string) ([]model.Document, error) {
	return []model.Document{{ID: 2, Filename: q + ".pdf"}}, nil
}

func (f *fakeDocs) SearchIndexed(context.Context, string) ([]model.Document, error) {
	return nil, service.ErrSearchIndexDisabled
}

func (f *fakeDocs) ByType(_ context.Context, t model.DocumentType) ([]model.Document, error) {
	return []model.Document{{ID: 3, DocumentType: t}}, nil
}

type fakeMembers struct {
	service.MemberService
	res *service.ImportResult
}

func (f *fakeMembers) ImportCSV(_ context.Context, filename string, _ []byte) (*service.ImportResult, error) {
	if !strings.HasSuffix(filename, ".csv") {
		return nil, service.ErrInvalidCSV
	}
	return f.res, nil
}

type fakeChat struct {
	service.ChatService
	requests []service.ChatRequest
}

func (f *fakeChat) Query(_ context.Context, req service.ChatRequest) (*service.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if strings.TrimSpace(req.Query) == "" {
		return nil, service.ErrEmptyQuery
	}
	return &service.ChatResponse{Status: "success", Query: req.Query, Response: "jawaban", QueryType: "general", SessionID: req.SessionID}, nil
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, username, password string) (*service.LoginResult, error) {
	if username != "admin" || password != "rahasia" {
		return nil, service.ErrInvalidCredentials
	}
	return &service.LoginResult{AccessToken: "tok", TokenType: "Bearer"}, nil
}

type fakeAnalytics struct{ service.AnalyticsService }

func (fakeAnalytics) Members(context.Context) (*service.AnalyticsResult, error) {
	return &service.AnalyticsResult{Message: "Belum ada data anggota untuk dianalisis", Data: map[string]any{"total_members": 0}}, nil
}

func (fakeAnalytics) Documents(context.Context) (*service.AnalyticsResult, error) {
	return &service.AnalyticsResult{Data: map[string]any{"total_documents": 2}}, nil
}

type fixture struct {
	engine *gin.Engine
	docs   *fakeDocs
	chat   *fakeChat
	jwt    *token.JWTManager
}

func newFixture(withAuth bool) *fixture {
	f := &fixture{
		docs: &fakeDocs{docs: map[uint]*model.Document{1: {ID: 1, Filename: "a.pdf", FullText: "halo"}}},
		chat: &fakeChat{},
		jwt:  token.NewJWTManager("secret", 1),
	}
	h := &Handlers{
		Auth:       NewAuthHandler(fakeAuth{}),
		Document:   NewDocumentHandler(f.docs, 1),
		Collection: NewCollectionHandler(nil),
		Member:     NewMemberHandler(&fakeMembers{res: &service.ImportResult{Imported: 2, Errors: []string{}, Message: "Successfully imported 2 pengurus from CSV"}}),
		Chat:       NewChatHandler(f.chat),
		Analytics:  NewAnalyticsHandler(fakeAnalytics{}, nil),
	}
	f.engine = gin.New()
	var admin gin.HandlerFunc
	if withAuth {
		admin = middleware.AdminAuth(f.jwt)
	}
	h.Register(f.engine, admin)
	return f
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func multipartRequest(t *testing.T, url, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	f := newFixture(false)
	w, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(false)
	req := multipartRequest(t, "/api/v1/documents/upload?category=Regulasi", "ad.pdf", []byte("%PDF-1.4 isi"), map[string]string{
		"tags":                " ad, ,art ",
		"generate_ai_summary": "true",
	})
	w, env := f.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Document uploaded and processed successfully", env.Message)

	in := f.docs.uploaded
	require.Equal(t, "ad.pdf", in.Filename)
	require.Equal(t, "Regulasi", in.Category)
	require.Equal(t, []string{"ad", "art"}, in.Tags)
	require.True(t, in.EnrichWithAI)

	var data struct {
		Document map[string]any `json:"document"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "ad.pdf", data.Document["filename"])
	require.Equal(t, "REPORT", data.Document["document_type"])
}

func TestUploadRejections(t *testing.T) {
	cases := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		err    error
		status int
	}{
		{"missing file", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/api/v1/documents/upload", "", nil, map[string]string{"category": "x"})
		}, nil, http.StatusBadRequest},
		{"too large", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/api/v1/documents/upload", "big.pdf", bytes.Repeat([]byte("a"), 2<<20), nil)
		}, nil, http.StatusRequestEntityTooLarge},
		{"invalid input", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/api/v1/documents/upload", "x.txt", []byte("x"), nil)
		}, fmt.Errorf("%w: only PDF files are supported", pipeline.ErrInvalidInput), http.StatusBadRequest},
		{"extraction failure", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/api/v1/documents/upload", "x.pdf", []byte("x"), nil)
		}, fmt.Errorf("%w: broken xref", pipeline.ErrExtractionFailure), http.StatusUnprocessableEntity},
		{"internal", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/api/v1/documents/upload", "x.pdf", []byte("x"), nil)
		}, fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(false)
			f.docs.uploadErr = tc.err
			w, env := f.do(t, tc.req(t))
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.status, env.Code)
			require.NotContains(t, env.Message, "db down")
		})
	}
}

func TestListDocuments(t *testing.T) {
	f := newFixture(false)
	w, env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents?skip=5&limit=10&document_type=report&search=%20ad%20", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, repository.DocumentFilter{Skip: 5, Limit: 10, DocumentType: "REPORT", Search: "ad"}, f.docs.filter)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, float64(1), data["total"])

	w, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents?skip=-1", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDocument(t *testing.T) {
	f := newFixture(false)
	w, env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		ContentStats map[string]any `json:"content_stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, float64(4), data.ContentStats["text_length"])

	w, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/99", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/abc", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaticRoutesWinOverID(t *testing.T) {
	f := newFixture(false)
	w, env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/search?q=ad", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, string(env.Data), `"ad.pdf"`)

	w, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/search", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/search/index?q=ad", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, env = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/type/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, string(env.Data), `"document_type":"REPORT"`)

	w, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents/type/brosur", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCategoryFromBody(t *testing.T) {
	f := newFixture(false)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/documents/1/category", strings.NewReader(`{"category":"Regulasi"}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ := f.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Regulasi", f.docs.category)

	w, _ = f.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/documents/1/category?category=SK", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "SK", f.docs.category)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newFixture(true)
	w, _ := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/1", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, f.docs.deleted)

	tok, _, err := f.jwt.GenerateToken("admin", token.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w, env := f.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Document deleted successfully", env.Message)
	require.Equal(t, []uint{1}, f.docs.deleted)

	w, _ = f.do(t, multipartRequest(t, "/api/v1/members/upload-csv", "p.csv", []byte("nama\n"), nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMemberCSVUpload(t *testing.T) {
	f := newFixture(false)
	w, env := f.do(t, multipartRequest(t, "/api/v1/members/upload-csv", "p.csv", []byte("nama\nBudi\n"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"success","message":"Successfully imported 2 pengurus from CSV","imported":2,"errors":null}`, string(env.Data))

	w, _ = f.do(t, multipartRequest(t, "/api/v1/members/upload-csv", "p.xlsx", []byte("x"), nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatQuery(t *testing.T) {
	f := newFixture(false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/query", strings.NewReader(`{"query":"apa visi HIPMI?","session_id":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := f.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp service.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Equal(t, "jawaban", resp.Response)
	require.Equal(t, "s1", resp.SessionID)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat/query", strings.NewReader(`{"query":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ = f.do(t, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatWebsocket(t *testing.T) {
	f := newFixture(false)
	srv := httptest.NewServer(f.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(service.ChatRequest{Query: "halo"}))
	var first service.ChatResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "jawaban", first.Response)
	require.NotEmpty(t, first.SessionID)

	require.NoError(t, conn.WriteJSON(service.ChatRequest{Query: "lagi"}))
	var second service.ChatResponse
	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, first.SessionID, second.SessionID)

	require.NoError(t, conn.WriteJSON(service.ChatRequest{Query: ""}))
	var failed map[string]string
	require.NoError(t, conn.ReadJSON(&failed))
	require.Equal(t, "error", failed["status"])
	require.Equal(t, service.ErrEmptyQuery.Error(), failed["error"])
}

func TestLogin(t *testing.T) {
	f := newFixture(false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"salah"}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ := f.do(t, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"rahasia"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := f.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, string(env.Data), `"access_token":"tok"`)
}

func TestAnalyticsMessages(t *testing.T) {
	f := newFixture(false)
	_, env := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/members", nil))
	require.Equal(t, "Belum ada data anggota untuk dianalisis", env.Message)

	_, env = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/documents", nil))
	require.Equal(t, "success", env.Message)
	require.JSONEq(t, `{"total_documents":2}`, string(env.Data))
}
