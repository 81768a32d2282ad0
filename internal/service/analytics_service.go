package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/pkg/llm"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

const membersPromptTemplate = `Kamu adalah AI analyst untuk organisasi HIPMI. Analisis data keanggotaan berikut dan berikan insight dalam bahasa Indonesia yang mudah dipahami.

DATA ANGGOTA:
- Total: %d orang
- Distribusi Jabatan: %s
- Distribusi Bidang Usaha: %s
- Distribusi Gender: %s

Berikan analisis dalam format berikut (TANPA markdown, TANPA ` + "```json" + `):

SUMMARY:
[Ringkasan kondisi keanggotaan dalam 2-3 kalimat yang mudah dipahami]

KEY_INSIGHTS:
- [Insight penting pertama dalam 1-2 kalimat]
- [Insight penting kedua dalam 1-2 kalimat]
- [Insight penting ketiga dalam 1-2 kalimat]

TRENDS:
[Analisis tren dalam 2-3 kalimat, fokus pada pola yang terlihat]

RECOMMENDATIONS:
- [Rekomendasi strategis pertama yang actionable]
- [Rekomendasi strategis kedua yang actionable]
- [Rekomendasi strategis ketiga yang actionable]

Gunakan bahasa yang profesional namun mudah dipahami. Fokus pada insight yang praktis dan actionable.`

const documentsPromptTemplate = `Kamu adalah AI analyst untuk dokumentasi HIPMI. Analisis data dokumen berikut dan berikan insight dalam bahasa Indonesia yang mudah dipahami.

DATA DOKUMEN:
- Total Dokumen: %d
- Total Halaman: %d
- Distribusi Tipe: %s
- Distribusi Kategori: %s

Berikan analisis dalam format berikut (TANPA markdown, TANPA ` + "```json" + `):

SUMMARY:
[Ringkasan kondisi dokumentasi dalam 2-3 kalimat]

KEY_INSIGHTS:
- [Insight penting pertama tentang kondisi dokumentasi]
- [Insight penting kedua tentang kelengkapan atau kualitas]
- [Insight penting ketiga tentang distribusi atau coverage]

DOCUMENT_HEALTH:
[Status kesehatan dokumentasi dalam 1 kalimat - apakah sudah baik/cukup/perlu perbaikan]

RECOMMENDATIONS:
- [Rekomendasi praktis pertama untuk meningkatkan dokumentasi]
- [Rekomendasi praktis kedua]
- [Rekomendasi praktis ketiga]

Gunakan bahasa yang profesional namun mudah dipahami.`

const overviewPromptTemplate = `Sebagai AI analyst untuk HIPMI, berikan ringkasan singkat kondisi organisasi:

Total Anggota: %d
Total Dokumen: %d

Berikan 3 poin insight singkat dalam format JSON:
{
    "health_status": "Excellent/Good/Fair/Needs Improvement",
    "key_points": ["Poin 1", "Poin 2", "Poin 3"],
    "next_actions": "Rekomendasi prioritas"
}`

const maxAnalysisItems = 3

// AnalyticsResult 是分析接口的返回，Message 仅在无数据时设置。
type AnalyticsResult struct {
	Message string
	Data    map[string]any
}

// AnalyticsService 定义了基于成员与文档数据的统计分析操作。
type AnalyticsService interface {
	Members(ctx context.Context) (*AnalyticsResult, error)
	Documents(ctx context.Context) (*AnalyticsResult, error)
	Overview(ctx context.Context) (map[string]any, error)
}

type analyticsService struct {
	memberRepo repository.MemberRepository
	docRepo    repository.DocumentRepository
	llmClient  llm.Client
	now        func() time.Time
}

// NewAnalyticsService 创建一个新的 AnalyticsService 实例。
func NewAnalyticsService(memberRepo repository.MemberRepository, docRepo repository.DocumentRepository, llmClient llm.Client) AnalyticsService {
	return &analyticsService{memberRepo: memberRepo, docRepo: docRepo, llmClient: llmClient, now: time.Now}
}

func (s *analyticsService) lastUpdated() *string {
	now := s.now()
	return model.FormatTime(&now)
}

// Members 统计成员分布并请求生成式服务给出分析。
func (s *analyticsService) Members(ctx context.Context) (*AnalyticsResult, error) {
	members, err := s.memberRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载成员失败: %w", err)
	}
	if len(members) == 0 {
		return &AnalyticsResult{
			Message: "Belum ada data anggota untuk dianalisis",
			Data: map[string]any{
				"summary":         "Belum ada data anggota HIPMI yang tersimpan di sistem",
				"total_members":   0,
				"key_insights":    []string{},
				"trends":          "Tidak ada data untuk analisis tren",
				"recommendations": []string{"Upload data anggota untuk mendapatkan analisis"},
			},
		}, nil
	}

	ms := memberStatistics(members)
	data := s.analyzeMembers(ctx, ms)
	data["statistics"] = map[string]any{
		"total_pengurus":   len(members),
		"by_jabatan":       ms.jabatan,
		"by_bidang_usaha":  ms.bidang,
		"by_status_kta":    ms.statusKTA,
		"total_perusahaan": ms.companies,
	}
	data["visualizations"] = map[string]any{
		"age_distribution":     ms.ages.sortedByKey(),
		"gender_proportion":    ms.gender,
		"by_business_category": ms.bidang.sortedByCountDesc(),
		"company_ownership":    ms.ownership,
	}
	data["last_updated"] = s.lastUpdated()
	return &AnalyticsResult{Data: data}, nil
}

type memberStats struct {
	total     int
	jabatan   *orderedCounts
	bidang    *orderedCounts
	statusKTA *orderedCounts
	gender    *orderedCounts
	ages      *orderedCounts
	ownership *orderedCounts
	companies int
}

func ageRange(age int) string {
	switch {
	case age < 25:
		return "20-25"
	case age < 30:
		return "25-30"
	case age < 35:
		return "30-35"
	case age < 40:
		return "35-40"
	case age < 45:
		return "40-45"
	default:
		return "45+"
	}
}

func memberStatistics(members []model.Member) memberStats {
	ms := memberStats{
		total:     len(members),
		jabatan:   newOrderedCounts(),
		bidang:    newOrderedCounts(),
		statusKTA: newOrderedCounts(),
		gender:    newOrderedCounts("Male", "Female"),
		ages:      newOrderedCounts(),
		ownership: newOrderedCounts("Memiliki Perusahaan", "Tidak Memiliki Perusahaan"),
	}
	companies := map[string]struct{}{}
	for _, m := range members {
		ms.jabatan.add(model.StrOr(m.Jabatan, unknownIndonesian))
		ms.bidang.add(model.StrOr(m.KategoriBidangUsaha, unknownIndonesian))
		ms.statusKTA.add(model.StrOr(m.StatusKTA, unknownIndonesian))
		if g := strings.TrimSpace(model.Str(m.JenisKelamin)); g == "Male" || g == "Female" {
			ms.gender.add(g)
		}
		if m.Usia != nil && *m.Usia > 0 {
			ms.ages.add(ageRange(*m.Usia))
		}
		if name := strings.TrimSpace(model.Str(m.NamaPerusahaan)); name != "" {
			ms.ownership.add("Memiliki Perusahaan")
			companies[name] = struct{}{}
		} else {
			ms.ownership.add("Tidak Memiliki Perusahaan")
		}
	}
	ms.companies = len(companies)
	return ms
}

const unknownIndonesian = "Tidak Diketahui"

func (s *analyticsService) analyzeMembers(ctx context.Context, ms memberStats) map[string]any {
	prompt := fmt.Sprintf(membersPromptTemplate, ms.total, ms.jabatan, ms.bidang, ms.gender)
	resp, err := s.llmClient.Complete(ctx, prompt)
	if err != nil {
		log.Warnf("[AnalyticsService] 成员分析调用失败, 使用统计回退: %v", err)
		return map[string]any{
			"summary":       fmt.Sprintf("Organisasi HIPMI memiliki %d anggota dengan distribusi di berbagai bidang usaha dan jabatan.", ms.total),
			"total_members": ms.total,
			"key_insights": []string{
				fmt.Sprintf("Total %d anggota terdaftar dalam sistem", ms.total),
				fmt.Sprintf("Distribusi gender: %d Pria, %d Wanita", ms.gender.get("Male"), ms.gender.get("Female")),
				fmt.Sprintf("Terdapat %d kategori bidang usaha yang berbeda", ms.bidang.len()),
			},
			"trends": "Data menunjukkan keragaman bidang usaha di antara anggota HIPMI.",
			"recommendations": []string{
				"Lakukan update data anggota secara berkala",
				"Monitor distribusi anggota per bidang",
				"Tingkatkan engagement melalui program yang relevan",
			},
			"error_detail": err.Error(),
		}
	}

	p := parseSections(resp, map[string]string{
		"SUMMARY":         "summary",
		"KEY_INSIGHTS":    "insights",
		"KEY INSIGHTS":    "insights",
		"TRENDS":          "trends",
		"RECOMMENDATIONS": "recommendations",
	})
	return map[string]any{
		"summary":       p.textOr("summary", "Data keanggotaan HIPMI tersimpan dengan baik di sistem."),
		"total_members": ms.total,
		"key_insights": p.listOr("insights",
			"Analisis sedang diproses",
			"Silakan coba beberapa saat lagi",
			"Data tersedia untuk analisis lebih lanjut"),
		"trends": p.textOr("trends", "Tren menunjukkan perkembangan positif organisasi."),
		"recommendations": p.listOr("recommendations",
			"Pertahankan kualitas data",
			"Lakukan pembaruan rutin",
			"Monitor perkembangan anggota"),
	}
}

// Documents 统计文档分布并请求生成式服务给出分析。
func (s *analyticsService) Documents(ctx context.Context) (*AnalyticsResult, error) {
	documents, err := s.docRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载文档失败: %w", err)
	}
	if len(documents) == 0 {
		return &AnalyticsResult{
			Message: "Belum ada dokumen untuk dianalisis",
			Data: map[string]any{
				"summary":         "Belum ada dokumen HIPMI yang tersimpan di sistem",
				"total_documents": 0,
				"total_pages":     0,
				"key_insights":    []string{},
				"document_health": "Belum ada data",
				"recommendations": []string{"Upload dokumen HIPMI untuk mendapatkan analisis"},
			},
		}, nil
	}

	types, categories := newOrderedCounts(), newOrderedCounts()
	totalPages := 0
	totalSize := 0.0
	for i := range documents {
		d := &documents[i]
		docType := string(d.DocumentType)
		if docType == "" {
			docType = "Unknown"
		}
		types.add(docType)
		categories.add(model.StrOr(d.Category, "Tidak Dikategorikan"))
		totalPages += d.PageCount
		totalSize += d.FileSizeMB()
	}
	n := len(documents)

	data := s.analyzeDocuments(ctx, n, totalPages, types, categories)
	data["statistics"] = map[string]any{
		"total_documents":   n,
		"total_pages":       totalPages,
		"total_size_mb":     model.Round(totalSize, 2),
		"by_type":           types,
		"by_category":       categories,
		"avg_pages_per_doc": model.Round(float64(totalPages)/float64(n), 1),
		"avg_size_mb":       model.Round(totalSize/float64(n), 2),
	}
	data["last_updated"] = s.lastUpdated()
	return &AnalyticsResult{Data: data}, nil
}

func (s *analyticsService) analyzeDocuments(ctx context.Context, total, pages int, types, categories *orderedCounts) map[string]any {
	prompt := fmt.Sprintf(documentsPromptTemplate, total, pages, types, categories)
	resp, err := s.llmClient.Complete(ctx, prompt)
	if err != nil {
		log.Warnf("[AnalyticsService] 文档分析调用失败, 使用统计回退: %v", err)
		return map[string]any{
			"summary":         fmt.Sprintf("Sistem memiliki %d dokumen dengan total %d halaman.", total, pages),
			"total_documents": total,
			"total_pages":     pages,
			"key_insights": []string{
				fmt.Sprintf("Total %d dokumen tersimpan di sistem", total),
				fmt.Sprintf("Terdapat %d kategori dokumen", categories.len()),
				fmt.Sprintf("Total %d halaman dokumentasi", pages),
			},
			"document_health": "Dokumentasi tersimpan dengan baik di sistem.",
			"recommendations": []string{
				"Lakukan categorization dokumen secara konsisten",
				"Update metadata dokumen secara berkala",
				"Monitor kelengkapan dokumentasi organisasi",
			},
			"error_detail": err.Error(),
		}
	}

	p := parseSections(resp, map[string]string{
		"SUMMARY":         "summary",
		"KEY_INSIGHTS":    "insights",
		"KEY INSIGHTS":    "insights",
		"DOCUMENT_HEALTH": "health",
		"DOCUMENT HEALTH": "health",
		"RECOMMENDATIONS": "recommendations",
	})
	return map[string]any{
		"summary":         p.textOr("summary", fmt.Sprintf("Sistem memiliki %d dokumen dengan total %d halaman.", total, pages)),
		"total_documents": total,
		"total_pages":     pages,
		"key_insights": p.listOr("insights",
			"Dokumentasi tersedia untuk analisis",
			"Data dokumen tersimpan dengan baik",
			"Sistem siap untuk pengelolaan lebih lanjut"),
		"document_health": p.textOr("health", "Kondisi dokumentasi dalam status baik."),
		"recommendations": p.listOr("recommendations",
			"Pertahankan kualitas dokumentasi",
			"Update dokumen secara berkala",
			"Monitor kelengkapan dokumen"),
	}
}

// Overview 返回成员与文档数量，有数据时合并生成式服务给出的 JSON 概览。
func (s *analyticsService) Overview(ctx context.Context) (map[string]any, error) {
	members, err := s.memberRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	documents, err := s.docRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	overview := map[string]any{
		"total_members":   members,
		"total_documents": documents,
		"has_data":        members > 0 || documents > 0,
	}
	if members == 0 && documents == 0 {
		return overview, nil
	}

	resp, err := s.llmClient.Complete(ctx, fmt.Sprintf(overviewPromptTemplate, members, documents))
	var ai map[string]any
	if err == nil {
		err = json.Unmarshal([]byte(stripCodeFence(resp)), &ai)
	}
	if err != nil {
		log.Warnf("[AnalyticsService] 概览分析不可用: %v", err)
		overview["message"] = "AI analysis tidak tersedia, menampilkan data statistik"
		return overview, nil
	}
	for k, v := range ai {
		overview[k] = v
	}
	return overview, nil
}

// stripCodeFence 去掉模型偶尔包裹在 JSON 外的 ``` 围栏。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// sections 是按标题切分后的回答。
type sections struct {
	text  map[string]string
	lists map[string][]string
}

// parseSections 按行扫描回答，以给定前缀（大小写不敏感）开头的行切换当前段落。
// 其余行去掉开头的项目符号后追加到当前段落。
func parseSections(resp string, headers map[string]string) sections {
	p := sections{text: map[string]string{}, lists: map[string][]string{}}
	current := ""
	for _, line := range strings.Split(strings.TrimSpace(resp), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if name, ok := matchHeader(line, headers); ok {
			current = name
			continue
		}
		clean := strings.TrimSpace(strings.TrimLeft(line, "•-*"))
		if clean == "" || strings.HasPrefix(clean, "#") || current == "" {
			continue
		}
		p.lists[current] = append(p.lists[current], clean)
		if prev := p.text[current]; prev != "" {
			p.text[current] = prev + " " + clean
		} else {
			p.text[current] = clean
		}
	}
	return p
}

func matchHeader(line string, headers map[string]string) (string, bool) {
	upper := strings.ToUpper(line)
	for prefix, name := range headers {
		if strings.HasPrefix(upper, prefix) {
			return name, true
		}
	}
	return "", false
}

func (p sections) textOr(name, fallback string) string {
	if v := strings.TrimSpace(p.text[name]); v != "" {
		return v
	}
	return fallback
}

func (p sections) listOr(name string, fallback ...string) []string {
	items := p.lists[name]
	if len(items) == 0 {
		return fallback
	}
	if len(items) > maxAnalysisItems {
		items = items[:maxAnalysisItems]
	}
	return items
}
