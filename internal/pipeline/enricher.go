package pipeline

import (
	"context"
	"fmt"

	"github.com/nggaadaotak/kintari-be/pkg/llm"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/tasks"
	"github.com/nggaadaotak/kintari-be/pkg/textutil"
	"golang.org/x/sync/errgroup"
)

const (
	aiSummaryInputLength  = 15000
	aiInsightsInputLength = 8000
)

const insightsTemplate = `
Analyze this document briefly and extract key information:
Document Type: %s
Content: %s

Provide a brief analysis covering:
1. Main topics (2-3 points)
2. Key findings (2-3 points)
3. Important entities (people, organizations, dates)
`

// Enricher 为已入库的文档生成 AI 摘要与洞察。
type Enricher struct {
	docs DocumentStore
	llm  llm.Client
}

// NewEnricher 创建一个新的 Enricher。
func NewEnricher(docs DocumentStore, client llm.Client) *Enricher {
	return &Enricher{docs: docs, llm: client}
}

// Process 执行一次增强任务。AI 摘要已存在或全文为空时直接返回。
func (e *Enricher) Process(ctx context.Context, task tasks.EnrichmentTask) error {
	doc, err := e.docs.FindByID(ctx, task.DocumentID)
	if err != nil {
		return fmt.Errorf("加载文档 %d 失败: %w", task.DocumentID, err)
	}
	if doc.AISummary != nil {
		log.Infof("[Enricher] 文档已有 AI 摘要, 跳过, DocumentID: %d", doc.ID)
		return nil
	}
	if doc.FullText == "" {
		log.Infof("[Enricher] 文档全文为空, 跳过, DocumentID: %d", doc.ID)
		return nil
	}

	var summary, analysis string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := llm.Summarize(gctx, e.llm, textutil.Prefix(doc.FullText, aiSummaryInputLength))
		summary = s
		return err
	})
	g.Go(func() error {
		prompt := fmt.Sprintf(insightsTemplate, doc.DocumentType, textutil.Prefix(doc.FullText, aiInsightsInputLength))
		a, err := llm.Summarize(gctx, e.llm, prompt)
		analysis = a
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warnf("[Enricher] AI 增强失败, DocumentID: %d, Error: %v", doc.ID, err)
		return fmt.Errorf("AI 增强失败: %w", err)
	}

	updated, err := e.docs.UpdateAIFields(ctx, doc.ID, summary, map[string]any{"analysis": analysis})
	if err != nil {
		return fmt.Errorf("保存 AI 字段失败: %w", err)
	}
	if !updated {
		log.Infof("[Enricher] AI 字段已被其他任务写入, DocumentID: %d", doc.ID)
		return nil
	}
	log.Infof("[Enricher] AI 增强完成, DocumentID: %d", doc.ID)
	return nil
}

// InlineDispatcher 在调用方的 goroutine 中直接执行增强任务，用于未配置 Kafka 的部署。
// 失败只记录日志，不影响入库结果。
type InlineDispatcher struct {
	enricher *Enricher
}

// NewInlineDispatcher 创建一个同步执行的投递器。
func NewInlineDispatcher(enricher *Enricher) *InlineDispatcher {
	return &InlineDispatcher{enricher: enricher}
}

// Dispatch 同步执行任务，始终返回 nil。
func (d *InlineDispatcher) Dispatch(ctx context.Context, task tasks.EnrichmentTask) error {
	if err := d.enricher.Process(ctx, task); err != nil {
		log.Warnf("[Enricher] 同步增强失败, DocumentID: %d, Error: %v", task.DocumentID, err)
	}
	return nil
}
