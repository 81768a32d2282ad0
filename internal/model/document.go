// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentType 是文档自动分类得到的类型标签，取值为固定枚举。
type DocumentType string

const (
	TypeHIPMIPO       DocumentType = "HIPMI_PO"
	TypeHIPMIAD       DocumentType = "HIPMI_AD"
	TypeHIPMIART      DocumentType = "HIPMI_ART"
	TypeHIPMISK       DocumentType = "HIPMI_SK"
	TypeHIPMIDocument DocumentType = "HIPMI_DOCUMENT"
	TypeContract      DocumentType = "CONTRACT"
	TypeReport        DocumentType = "REPORT"
	TypeProposal      DocumentType = "PROPOSAL"
	TypePresentation  DocumentType = "PRESENTATION"
	TypeRegulation    DocumentType = "REGULATION"
	TypeManual        DocumentType = "MANUAL"
	TypeOther         DocumentType = "OTHER"
)

// AllDocumentTypes 按固定顺序列出全部文档类型。
var AllDocumentTypes = []DocumentType{
	TypeHIPMIPO, TypeHIPMIAD, TypeHIPMIART, TypeHIPMISK, TypeHIPMIDocument,
	TypeContract, TypeReport, TypeProposal, TypePresentation, TypeRegulation,
	TypeManual, TypeOther,
}

// TypeInfo 是文档类型的可读描述。
type TypeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var typeInfos = map[DocumentType]TypeInfo{
	TypeHIPMIPO:       {"Peraturan Organisasi HIPMI", "Dokumen peraturan organisasi internal", "📋"},
	TypeHIPMIAD:       {"Anggaran Dasar HIPMI", "Dokumen anggaran dasar organisasi", "📜"},
	TypeHIPMIART:      {"Anggaran Rumah Tangga HIPMI", "Dokumen anggaran rumah tangga organisasi", "🏛️"},
	TypeHIPMISK:       {"Surat Keputusan HIPMI", "Dokumen surat keputusan organisasi", "✅"},
	TypeHIPMIDocument: {"Dokumen HIPMI", "Dokumen umum HIPMI", "📄"},
	TypeContract:      {"Kontrak/Perjanjian", "Dokumen kontrak atau perjanjian", "📝"},
	TypeReport:        {"Laporan", "Dokumen laporan", "📊"},
	TypeProposal:      {"Proposal", "Dokumen proposal", "💼"},
	TypePresentation:  {"Presentasi", "Slide presentasi", "📽️"},
	TypeRegulation:    {"Peraturan", "Dokumen peraturan", "⚖️"},
	TypeManual:        {"Manual/Panduan", "Dokumen manual atau panduan", "📖"},
	TypeOther:         {"Dokumen Lainnya", "Dokumen umum lainnya", "📑"},
}

var unknownTypeInfo = TypeInfo{Name: "Unknown", Description: "Unknown document type", Icon: "❓"}

// Info 返回类型的可读描述，未知类型返回 Unknown。
func (t DocumentType) Info() TypeInfo {
	if info, ok := typeInfos[t]; ok {
		return info
	}
	return unknownTypeInfo
}

// Valid 报告 t 是否属于固定枚举。
func (t DocumentType) Valid() bool {
	_, ok := typeInfos[t]
	return ok
}

// Entities 是从全文中按模式抽取的实体，六个键始终存在。
type Entities struct {
	Dates         []string `json:"dates"`
	Numbers       []string `json:"numbers"`
	Organizations []string `json:"organizations"`
	Emails        []string `json:"emails"`
	URLs          []string `json:"urls"`
	PhoneNumbers  []string `json:"phone_numbers"`
}

// NewEntities 返回所有序列均为空（非 nil）的实体集合。
func NewEntities() Entities {
	return Entities{
		Dates:         []string{},
		Numbers:       []string{},
		Organizations: []string{},
		Emails:        []string{},
		URLs:          []string{},
		PhoneNumbers:  []string{},
	}
}

// Counts 返回每类实体的数量。
func (e Entities) Counts() map[string]int {
	return map[string]int{
		"dates":         len(e.Dates),
		"numbers":       len(e.Numbers),
		"organizations": len(e.Organizations),
		"emails":        len(e.Emails),
		"urls":          len(e.URLs),
		"phone_numbers": len(e.PhoneNumbers),
	}
}

// Table 是从某一页抽取出的表格，Page 从 1 开始。
type Table struct {
	Page int        `json:"page"`
	Data [][]string `json:"data"`
	Rows int        `json:"rows"`
	Cols int        `json:"cols"`
}

// Document 定义了 universal_documents 表的 ORM 模型。
// 一条记录对应一个已入库的 PDF 及其派生数据。
type Document struct {
	ID                uint                         `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename          string                       `gorm:"type:varchar(255);not null;index" json:"filename"`
	FilePath          string                       `gorm:"type:varchar(500);not null" json:"file_path"`
	FileSize          int64                        `gorm:"not null;default:0" json:"file_size"`
	DocumentType      DocumentType                 `gorm:"type:varchar(50);not null;default:OTHER;index" json:"document_type"`
	Category          *string                      `gorm:"type:varchar(100)" json:"category"`
	Tags              datatypes.JSONSlice[string]  `gorm:"type:json" json:"tags"`
	FullText          string                       `gorm:"type:longtext" json:"full_text"`
	Summary           string                       `gorm:"type:text" json:"summary"`
	ExtractedEntities datatypes.JSONType[Entities] `gorm:"type:json" json:"extracted_entities"`
	Keywords          datatypes.JSONSlice[string]  `gorm:"type:json" json:"keywords"`
	TablesData        datatypes.JSONSlice[Table]   `gorm:"type:json" json:"tables_data"`
	PageCount         int                          `gorm:"not null;default:0" json:"page_count"`
	PDFMetadata       datatypes.JSONMap            `gorm:"type:json" json:"pdf_metadata"`
	AISummary         *string                      `gorm:"type:text" json:"ai_summary"`
	AIInsights        datatypes.JSONMap            `gorm:"type:json" json:"ai_insights"`
	Processed         bool                         `gorm:"not null;default:false" json:"processed"`
	ProcessedAt       *time.Time                   `json:"processed_at"`
	UploadedAt        time.Time                    `gorm:"not null;index" json:"uploaded_at"`
	UpdatedAt         time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	IsPublic          bool                         `gorm:"not null;default:true" json:"is_public"`
	UploadedBy        *string                      `gorm:"type:varchar(100)" json:"uploaded_by"`
	SearchIndex       string                       `gorm:"type:longtext" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "universal_documents"
}

// Entities 返回抽取出的实体，缺失的序列补为空序列。
func (d *Document) Entities() Entities {
	e := d.ExtractedEntities.Data()
	base := NewEntities()
	if e.Dates != nil {
		base.Dates = e.Dates
	}
	if e.Numbers != nil {
		base.Numbers = e.Numbers
	}
	if e.Organizations != nil {
		base.Organizations = e.Organizations
	}
	if e.Emails != nil {
		base.Emails = e.Emails
	}
	if e.URLs != nil {
		base.URLs = e.URLs
	}
	if e.PhoneNumbers != nil {
		base.PhoneNumbers = e.PhoneNumbers
	}
	return base
}

// FileSizeMB 返回保留两位小数的文件大小（MB）。
func (d *Document) FileSizeMB() float64 {
	return Round(float64(d.FileSize)/(1024*1024), 2)
}

// ToDict 返回列表场景使用的投影，不包含全文。
func (d *Document) ToDict() map[string]any {
	return map[string]any{
		"id":            d.ID,
		"filename":      d.Filename,
		"file_path":     d.FilePath,
		"file_size":     d.FileSize,
		"document_type": d.DocumentType,
		"category":      d.Category,
		"tags":          nonNilStrings(d.Tags),
		"summary":       d.Summary,
		"page_count":    d.PageCount,
		"keywords":      nonNilStrings(d.Keywords),
		"uploaded_at":   FormatTime(&d.UploadedAt),
		"processed":     d.Processed,
	}
}

// ToDictFull 在 ToDict 的基础上加入全文及全部派生数据。
func (d *Document) ToDictFull() map[string]any {
	out := d.ToDict()
	tables := []Table(d.TablesData)
	if tables == nil {
		tables = []Table{}
	}
	out["full_text"] = d.FullText
	out["extracted_entities"] = d.Entities()
	out["tables_data"] = tables
	out["pdf_metadata"] = d.PDFMetadata
	out["ai_summary"] = d.AISummary
	out["ai_insights"] = d.AIInsights
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
