package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/intent"
	"github.com/nggaadaotak/kintari-be/internal/knowledge"
	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/pkg/llm"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/textutil"
)

// ErrEmptyQuery 表示问题为空。
var ErrEmptyQuery = errors.New("query is required")

const (
	sourceDatabase   = "Direct Database Query"
	sourceKnowledge  = "HIPMI Knowledge Base + AI Analytics"
	contextPreviewAt = 500
	gatewayFallback  = "Maaf, layanan AI sedang tidak tersedia: %v"
)

const enhancedQueryTemplate = `Berdasarkan data HIPMI (pengurus, dokumen organisasi, dan peraturan) yang tersedia, jawab pertanyaan berikut:

Pertanyaan: %s

Instruksi:
- Gunakan DAFTAR PENGURUS untuk pertanyaan tentang nama, jabatan, perusahaan pengurus tertentu
- Contoh: "Ibrahim jabatannya apa?" → cari di daftar pengurus nama "Ibrahim"
- Gunakan data statistik untuk pertanyaan tentang angka/jumlah
- Gunakan isi dokumen untuk pertanyaan tentang peraturan, sejarah, visi/misi, dll
- Jika informasi tidak tersedia, katakan "Saya tidak memiliki informasi tersebut dalam database"
- Sebutkan sumber data jika memungkinkan (nama pengurus/file/dokumen)
- Jawab dalam Bahasa Indonesia yang profesional dan jelas
- Untuk pertanyaan tentang PO (Peraturan Organisasi), sebutkan nomor PO-nya
- Untuk nama pengurus, gunakan nama lengkap yang ada di daftar
`

// QueryRouter 将问题匹配到确定性查询，未命中返回 nil。
type QueryRouter interface {
	Route(ctx context.Context, query string) (*intent.Answer, error)
}

// ChatRequest 是一次问答请求。
type ChatRequest struct {
	Query     string `json:"query"`
	Context   string `json:"context"`
	SessionID string `json:"session_id"`
}

// ChatResponse 是问答结果。general 路径下才有计数字段。
type ChatResponse struct {
	Status         string         `json:"status"`
	Query          string         `json:"query"`
	Response       string         `json:"response"`
	Source         string         `json:"source"`
	QueryType      string         `json:"query_type"`
	Data           map[string]any `json:"data,omitempty"`
	MembersCount   *int           `json:"members_count,omitempty"`
	DocumentsCount *int           `json:"documents_count,omitempty"`
	ContextSize    *int           `json:"context_size,omitempty"`
	SessionID      string         `json:"session_id,omitempty"`
}

// ContextInfo 是上下文的预览信息。
type ContextInfo struct {
	Status         string `json:"status"`
	MembersCount   int    `json:"members_count"`
	DocumentsCount int    `json:"documents_count"`
	ContextLength  int    `json:"context_length"`
	ContextPreview string `json:"context_preview"`
}

// ChatService 定义了问答操作的接口。
type ChatService interface {
	Query(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Context(ctx context.Context) (*ContextInfo, error)
	History(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}

type chatService struct {
	router           QueryRouter
	memberRepo       repository.MemberRepository
	docRepo          repository.DocumentRepository
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository
	now              func() time.Time
}

// NewChatService 创建一个新的 ChatService 实例。conversationRepo 为 nil 时不保存会话历史。
func NewChatService(router QueryRouter, memberRepo repository.MemberRepository, docRepo repository.DocumentRepository, llmClient llm.Client, conversationRepo repository.ConversationRepository) ChatService {
	return &chatService{
		router:           router,
		memberRepo:       memberRepo,
		docRepo:          docRepo,
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
		now:              time.Now,
	}
}

// Query 先尝试确定性查询，未命中时组装上下文并调用生成式服务。
func (s *chatService) Query(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	question := strings.TrimSpace(req.Query)
	if question == "" {
		return nil, ErrEmptyQuery
	}

	answer, err := s.router.Route(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("规则查询失败: %w", err)
	}
	var resp *ChatResponse
	if answer != nil {
		resp = &ChatResponse{
			Status:    "success",
			Query:     req.Query,
			Response:  answer.Text,
			Source:    sourceDatabase,
			QueryType: "specific",
			Data:      answer.Data,
		}
	} else {
		resp, err = s.generate(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if req.SessionID != "" {
		resp.SessionID = req.SessionID
		s.remember(ctx, req.SessionID, req.Query, resp)
	}
	return resp, nil
}

func (s *chatService) generate(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	contextText := req.Context
	membersCount, docsCount := 0, 0
	if contextText == "" {
		assembled, err := s.assemble(ctx)
		if err != nil {
			return nil, err
		}
		contextText = assembled.Text
		membersCount, docsCount = assembled.MembersCount, assembled.DocumentsCount
	}

	prompt := fmt.Sprintf(enhancedQueryTemplate, req.Query)
	text, err := llm.AnswerQuestion(ctx, s.llmClient, prompt, contextText)
	if err != nil {
		if !errors.Is(err, llm.ErrGateway) {
			return nil, err
		}
		log.Warnf("[ChatService] 生成式服务调用失败, 返回降级回答: %v", err)
		text = fmt.Sprintf(gatewayFallback, err)
	}

	contextSize := textutil.Len(contextText)
	return &ChatResponse{
		Status:         "success",
		Query:          req.Query,
		Response:       text,
		Source:         sourceKnowledge,
		QueryType:      "general",
		MembersCount:   &membersCount,
		DocumentsCount: &docsCount,
		ContextSize:    &contextSize,
	}, nil
}

func (s *chatService) assemble(ctx context.Context) (knowledge.Result, error) {
	members, err := s.memberRepo.FindAll(ctx)
	if err != nil {
		return knowledge.Result{}, fmt.Errorf("加载成员失败: %w", err)
	}
	documents, err := s.docRepo.FindAll(ctx)
	if err != nil {
		return knowledge.Result{}, fmt.Errorf("加载文档失败: %w", err)
	}
	return knowledge.Assemble(members, documents), nil
}

// remember 保存一轮问答，失败只记录日志。
func (s *chatService) remember(ctx context.Context, sessionID, question string, resp *ChatResponse) {
	if s.conversationRepo == nil {
		return
	}
	now := s.now()
	err := s.conversationRepo.Append(ctx, sessionID,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: resp.Response, Source: resp.Source, Timestamp: now},
	)
	if err != nil {
		log.Errorf("保存会话历史失败, SessionID: %s, Error: %v", sessionID, err)
	}
}

// Context 返回当前上下文的计数与前 500 个字符。
func (s *chatService) Context(ctx context.Context) (*ContextInfo, error) {
	assembled, err := s.assemble(ctx)
	if err != nil {
		return nil, err
	}
	return &ContextInfo{
		Status:         "success",
		MembersCount:   assembled.MembersCount,
		DocumentsCount: assembled.DocumentsCount,
		ContextLength:  textutil.Len(assembled.Text),
		ContextPreview: textutil.Truncate(assembled.Text, contextPreviewAt, "..."),
	}, nil
}

func (s *chatService) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	if s.conversationRepo == nil {
		return []model.ChatMessage{}, nil
	}
	return s.conversationRepo.GetHistory(ctx, sessionID)
}
