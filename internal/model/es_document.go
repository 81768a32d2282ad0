package model

import "time"

// EsDocument 定义了存储在 Elasticsearch 中的文档结构，正文为入库时生成的检索文本。
type EsDocument struct {
	DocumentID   uint         `json:"document_id"`
	Filename     string       `json:"filename"`
	DocumentType DocumentType `json:"document_type"`
	Category     string       `json:"category,omitempty"`
	SearchIndex  string       `json:"search_index"`
	UploadedAt   time.Time    `json:"uploaded_at"`
}

// NewEsDocument 由文档记录构建索引文档。
func NewEsDocument(d *Document) EsDocument {
	return EsDocument{
		DocumentID:   d.ID,
		Filename:     d.Filename,
		DocumentType: d.DocumentType,
		Category:     Str(d.Category),
		SearchIndex:  d.SearchIndex,
		UploadedAt:   d.UploadedAt,
	}
}
