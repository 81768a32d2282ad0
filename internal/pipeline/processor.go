package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/tasks"
	"github.com/nggaadaotak/kintari-be/pkg/textutil"
	"gorm.io/datatypes"
)

const (
	summaryLength     = 500
	searchIndexLength = 5000
)

// BlobStore 保存上传的原始文件。
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// DocumentStore 是流水线所需的文档持久化操作。
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uint) (*model.Document, error)
	UpdateAIFields(ctx context.Context, id uint, summary string, insights map[string]any) (bool, error)
}

// Indexer 将文档写入二级检索索引。
type Indexer interface {
	IndexDocument(ctx context.Context, doc model.EsDocument) error
}

// EnrichmentDispatcher 投递 AI 增强任务。
type EnrichmentDispatcher interface {
	Dispatch(ctx context.Context, task tasks.EnrichmentTask) error
}

// IngestRequest 是一次入库请求。
type IngestRequest struct {
	Data         []byte
	Filename     string
	Category     *string
	Tags         []string
	EnrichWithAI bool
	UploadedBy   *string
}

// Processor 封装了文档入库的所有依赖和逻辑。
type Processor struct {
	blobs      BlobStore
	docs       DocumentStore
	indexer    Indexer
	dispatcher EnrichmentDispatcher
	now        func() time.Time
}

// NewProcessor 创建一个新的 Processor 实例。indexer 与 dispatcher 可以为 nil。
func NewProcessor(blobs BlobStore, docs DocumentStore, indexer Indexer, dispatcher EnrichmentDispatcher) *Processor {
	return &Processor{
		blobs:      blobs,
		docs:       docs,
		indexer:    indexer,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Ingest 校验、存储并解析一个 PDF，成功时返回已提交的文档记录。
// 容器解析失败时不会产生记录；检索索引与 AI 增强失败只记录日志。
func (p *Processor) Ingest(ctx context.Context, req IngestRequest) (*model.Document, error) {
	log.Infof("[Processor] 开始处理文件, FileName: %s, Size: %d", req.Filename, len(req.Data))

	// 1. 校验
	if err := ValidateContent(req.Data, req.Filename); err != nil {
		log.Warnf("[Processor] 步骤1: 文件校验未通过, FileName: %s, Error: %v", req.Filename, err)
		return nil, err
	}

	// 2. 保存原始文件，同名文件直接覆盖
	key := "uploads/" + filepath.Base(req.Filename)
	log.Infof("[Processor] 步骤2: 保存原始文件, Object: %s", key)
	path, err := p.blobs.Put(ctx, key, req.Data)
	if err != nil {
		log.Errorf("[Processor] 保存原始文件失败, Object: %s, Error: %v", key, err)
		return nil, fmt.Errorf("保存原始文件失败: %w", err)
	}

	// 3. 解析 PDF
	extraction, err := ReadPDF(req.Data)
	if err != nil {
		log.Errorf("[Processor] 步骤3: PDF 解析失败, FileName: %s, Error: %v", req.Filename, err)
		return nil, err
	}
	text := extraction.Text
	log.Infof("[Processor] 步骤3: PDF 解析成功, 页数: %d, 文本长度: %d 字符, 表格: %d",
		extraction.Pages, textutil.Len(text), len(extraction.Tables))

	// 4. 实体、关键词与摘要
	entities := ExtractEntities(text)
	keywords := ExtractKeywords(text, DefaultKeywordCount)
	summary := textutil.Truncate(text, summaryLength, "...")

	// 5. 分类并持久化
	docType := ClassifyDocument(req.Filename, text)
	log.Infof("[Processor] 步骤4: 文档分类结果: %s", docType)

	now := p.now()
	doc := &model.Document{
		Filename:          req.Filename,
		FilePath:          path,
		FileSize:          int64(len(req.Data)),
		DocumentType:      docType,
		Category:          req.Category,
		Tags:              datatypes.JSONSlice[string](nonNil(req.Tags)),
		FullText:          text,
		Summary:           summary,
		ExtractedEntities: datatypes.NewJSONType(entities),
		Keywords:          datatypes.JSONSlice[string](keywords),
		TablesData:        datatypes.JSONSlice[model.Table](extraction.Tables),
		PageCount:         extraction.Pages,
		PDFMetadata:       datatypes.JSONMap(extraction.Metadata),
		Processed:         true,
		ProcessedAt:       &now,
		UploadedAt:        now,
		IsPublic:          true,
		UploadedBy:        req.UploadedBy,
		SearchIndex:       req.Filename + " " + textutil.Prefix(text, searchIndexLength),
	}
	if err := p.docs.Create(ctx, doc); err != nil {
		log.Errorf("[Processor] 步骤5: 保存文档记录失败, Error: %v", err)
		return nil, fmt.Errorf("保存文档记录失败: %w", err)
	}
	log.Infof("[Processor] 步骤5: 文档记录已保存, DocumentID: %d", doc.ID)

	// 6. 二级检索索引
	if p.indexer != nil {
		if err := p.indexer.IndexDocument(ctx, model.NewEsDocument(doc)); err != nil {
			log.Warnf("[Processor] 步骤6: 写入检索索引失败, DocumentID: %d, Error: %v", doc.ID, err)
		}
	}

	// 7. AI 增强
	if req.EnrichWithAI && text != "" && p.dispatcher != nil {
		task := tasks.EnrichmentTask{DocumentID: doc.ID, FileName: doc.Filename, RequestedAt: now}
		if err := p.dispatcher.Dispatch(ctx, task); err != nil {
			log.Warnf("[Processor] 步骤7: 投递 AI 增强任务失败, DocumentID: %d, Error: %v", doc.ID, err)
		} else {
			log.Infof("[Processor] 步骤7: AI 增强任务已投递, DocumentID: %d", doc.ID)
		}
	}

	log.Infof("[Processor] 文件处理成功完成, DocumentID: %d", doc.ID)
	return doc, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
