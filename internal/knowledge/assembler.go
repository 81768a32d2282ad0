// Package knowledge 将成员名册与文档库组装为供生成式服务使用的上下文文本。
package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/pkg/textutil"
)

const (
	rosterLimit      = 50
	documentLimit    = 10
	documentExcerpt  = 3000
	maxContextLength = 25000
	partSeparator    = "\n\n---\n\n"
	truncatedSuffix  = "\n\n[Context truncated...]"
	unknownValue     = "Tidak Diketahui"
	uncategorized    = "Tidak Dikategorikan"
)

// Result 是组装结果。
type Result struct {
	Text           string
	MembersCount   int
	DocumentsCount int
}

// Assemble 生成上下文文本。members 应按主键顺序传入。
func Assemble(members []model.Member, documents []model.Document) Result {
	parts := []string{header(members, documents)}
	for _, d := range latestWithText(documents) {
		parts = append(parts, fmt.Sprintf("[%s: %s]\n%s\n", heading(d), d.Filename, textutil.Prefix(d.FullText, documentExcerpt)))
	}

	text := strings.Join(parts, partSeparator)
	if textutil.Len(text) > maxContextLength {
		text = textutil.Prefix(text, maxContextLength) + truncatedSuffix
	}
	return Result{Text: text, MembersCount: len(members), DocumentsCount: len(documents)}
}

// distribution 按首次出现顺序计数。
type distribution struct {
	keys   []string
	counts map[string]int
}

func newDistribution() *distribution {
	return &distribution{counts: map[string]int{}}
}

func (d *distribution) add(key string) {
	if _, ok := d.counts[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.counts[key]++
}

func (d *distribution) String() string {
	items := make([]string, len(d.keys))
	for i, k := range d.keys {
		items[i] = fmt.Sprintf("'%s': %d", k, d.counts[k])
	}
	return "{" + strings.Join(items, ", ") + "}"
}

func header(members []model.Member, documents []model.Document) string {
	jabatan, bidang, kta := newDistribution(), newDistribution(), newDistribution()
	gender := map[string]int{}
	var employees int64
	var roster []string

	for _, m := range members {
		jabatan.add(model.StrOr(m.Jabatan, unknownValue))
		bidang.add(model.StrOr(m.KategoriBidangUsaha, unknownValue))
		kta.add(model.StrOr(m.StatusKTA, unknownValue))
		if m.JenisKelamin != nil {
			gender[*m.JenisKelamin]++
		}
		if m.JmlhKaryawan != nil {
			employees += int64(*m.JmlhKaryawan)
		}
		if line, ok := rosterLine(m); ok {
			roster = append(roster, line)
		}
	}

	types, categories := newDistribution(), newDistribution()
	for _, d := range documents {
		docType := string(d.DocumentType)
		if docType == "" {
			docType = "Unknown"
		}
		types.add(docType)
		categories.add(model.StrOr(d.Category, uncategorized))
	}

	var b strings.Builder
	b.WriteString("=== DATA PENGURUS HIPMI ===\n\n")
	b.WriteString("STATISTIK PENGURUS:\n")
	fmt.Fprintf(&b, "- Total Pengurus: %d\n", len(members))
	fmt.Fprintf(&b, "- Total Karyawan (semua perusahaan): %s\n", textutil.Thousands(employees))
	fmt.Fprintf(&b, "- Gender: %d Pria, %d Wanita\n", gender["Male"], gender["Female"])
	fmt.Fprintf(&b, "- Distribusi Jabatan: %s\n", jabatan)
	fmt.Fprintf(&b, "- Distribusi Bidang Usaha: %s\n", bidang)
	fmt.Fprintf(&b, "- Status KTA: %s\n\n", kta)

	b.WriteString("DAFTAR PENGURUS:\n")
	shown := roster
	if len(shown) > rosterLimit {
		shown = shown[:rosterLimit]
	}
	b.WriteString(strings.Join(shown, "\n"))
	b.WriteString("\n")
	if len(roster) > rosterLimit {
		fmt.Fprintf(&b, "... (dan %d pengurus lainnya)", len(roster)-rosterLimit)
	}
	b.WriteString("\n\n")

	b.WriteString("DOKUMEN HIPMI:\n")
	fmt.Fprintf(&b, "- Total Dokumen: %d\n", len(documents))
	fmt.Fprintf(&b, "- Tipe Dokumen: %s\n", types)
	fmt.Fprintf(&b, "- Kategori: %s\n\n", categories)
	b.WriteString("===========================\n")
	return b.String()
}

func rosterLine(m model.Member) (string, bool) {
	if m.Name == nil || *m.Name == "" {
		return "", false
	}
	line := "- " + *m.Name
	if v := model.Str(m.Jabatan); v != "" {
		line += fmt.Sprintf(" (Jabatan: %s)", v)
	}
	if v := model.Str(m.NamaPerusahaan); v != "" {
		line += ", Perusahaan: " + v
	}
	if v := model.Str(m.KategoriBidangUsaha); v != "" {
		line += ", Bidang: " + v
	}
	return line, true
}

// latestWithText 取最近上传的 10 个文档，跳过全文为空的文档。
func latestWithText(documents []model.Document) []model.Document {
	sorted := make([]model.Document, len(documents))
	copy(sorted, documents)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UploadedAt.Equal(sorted[j].UploadedAt) {
			return sorted[i].UploadedAt.After(sorted[j].UploadedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > documentLimit {
		sorted = sorted[:documentLimit]
	}
	out := sorted[:0]
	for _, d := range sorted {
		if d.FullText != "" {
			out = append(out, d)
		}
	}
	return out
}

var poNumber = regexp.MustCompile(`po[_\-\s]?(\d+)`)

// heading 根据文件名为文档段落选择标题。
func heading(d model.Document) string {
	name := strings.ToLower(d.Filename)
	switch {
	case strings.Contains(name, "sejarah"):
		return "Sejarah HIPMI"
	case strings.Contains(name, "visimisi"), strings.Contains(name, "visi"):
		return "Visi & Misi"
	case strings.Contains(name, "motto"):
		return "Motto HIPMI"
	case name == "ad.pdf", strings.Contains(name, "anggaran dasar"):
		return "Anggaran Dasar (AD)"
	case name == "art.pdf", strings.Contains(name, "anggaran rumah tangga"):
		return "Anggaran Rumah Tangga (ART)"
	case strings.Contains(name, "po"):
		if m := poNumber.FindStringSubmatch(name); m != nil {
			return fmt.Sprintf("Peraturan Organisasi (PO%s)", m[1])
		}
		return "Peraturan Organisasi (PO)"
	case d.DocumentType != "":
		return string(d.DocumentType)
	default:
		return "Dokumen"
	}
}
