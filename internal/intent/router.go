// Package intent 将自然语言问题匹配到针对成员名册的确定性查询。
// 规则按固定顺序尝试，第一个给出答案的规则生效；都不匹配时由调用方转交生成式服务。
package intent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/pkg/textutil"
	"gorm.io/gorm"
)

// AnswerType 是规则命中时的答案类型。
const AnswerType = "specific_query"

const notAvailable = "Tidak tersedia"

// Answer 是规则给出的确定性答案。
type Answer struct {
	Type string         `json:"type"`
	Text string         `json:"answer"`
	Data map[string]any `json:"data"`
}

// MemberStore 是路由所需的成员查询。
type MemberStore interface {
	CountContains(ctx context.Context, column, substr string) (int64, error)
	CountEquals(ctx context.Context, column, value string) (int64, error)
	GroupCounts(ctx context.Context, column string) ([]model.GroupCount, error)
	FirstByNameContains(ctx context.Context, substr string) (*model.Member, error)
	SumEmployees(ctx context.Context) (total int64, contributors int64, err error)
}

type query struct {
	raw   string
	lower string
}

type handler func(ctx context.Context, q query) (*Answer, error)

// Router 依次尝试各条规则。
type Router struct {
	members  MemberStore
	handlers []handler
}

// NewRouter 创建路由，规则顺序固定。
func NewRouter(members MemberStore) *Router {
	r := &Router{members: members}
	r.handlers = []handler{
		r.jabatan,
		r.bidangUsaha,
		r.statusKTA,
		r.genderRatio,
		r.memberProfile,
		r.memberContact,
		r.memberCompany,
		r.totalEmployees,
	}
	return r
}

// Route 返回第一个命中规则的答案。没有规则命中时返回 nil, nil。
func (r *Router) Route(ctx context.Context, q string) (*Answer, error) {
	in := query{raw: q, lower: strings.ToLower(q)}
	for _, h := range r.handlers {
		ans, err := h(ctx, in)
		if err != nil {
			return nil, err
		}
		if ans != nil {
			return ans, nil
		}
	}
	return nil, nil
}

var quotedPattern = regexp.MustCompile(`['"]([^'"]+)['"]`)

func quoted(s string) (string, bool) {
	m := quotedPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func answer(text string, data map[string]any) *Answer {
	return &Answer{Type: AnswerType, Text: text, Data: data}
}

func breakdown(title string, rows []model.GroupCount) (string, map[string]int64) {
	var b strings.Builder
	b.WriteString(title)
	counts := make(map[string]int64, len(rows))
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %d orang", row.Value, row.Count)
		counts[row.Value] = row.Count
	}
	return b.String(), counts
}

func (r *Router) jabatan(ctx context.Context, q query) (*Answer, error) {
	if !(strings.Contains(q.lower, "berapa") && containsAny(q.lower, "jabatan", "ketua", "sekum", "bendum")) {
		return nil, nil
	}
	if name, ok := quoted(q.lower); ok {
		n, err := r.members.CountContains(ctx, "jabatan", name)
		if err != nil {
			return nil, err
		}
		return answer(
			fmt.Sprintf("Jumlah pengurus dengan jabatan '%s': **%d orang**", name, n),
			map[string]any{"jabatan": name, "count": n},
		), nil
	}
	if strings.Contains(q.lower, "per jabatan") {
		rows, err := r.members.GroupCounts(ctx, "jabatan")
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		text, counts := breakdown("**Jumlah Pengurus per Jabatan:**\n", rows)
		return answer(text, map[string]any{"jabatan_counts": counts}), nil
	}
	return nil, nil
}

func (r *Router) bidangUsaha(ctx context.Context, q query) (*Answer, error) {
	if !containsAny(q.lower, "bidang usaha", "kategori bisnis") {
		return nil, nil
	}
	if containsAny(q.lower, "paling banyak", "terbanyak") {
		rows, err := r.members.GroupCounts(ctx, "kategori_bidang_usaha")
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			top := rows[0]
			return answer(
				fmt.Sprintf("Bidang usaha terbanyak di kepengurusan: **%s** (%d pengurus)", top.Value, top.Count),
				map[string]any{"bidang_usaha": top.Value, "count": top.Count},
			), nil
		}
	}
	if strings.Contains(q.lower, "berapa") {
		if name, ok := quoted(q.lower); ok {
			n, err := r.members.CountContains(ctx, "kategori_bidang_usaha", name)
			if err != nil {
				return nil, err
			}
			return answer(
				fmt.Sprintf("Jumlah pengurus di bidang '%s': **%d orang**", name, n),
				map[string]any{"bidang_usaha": name, "count": n},
			), nil
		}
	}
	return nil, nil
}

// statusKTA 从原始大小写的问题中取引号内容。
func (r *Router) statusKTA(ctx context.Context, q query) (*Answer, error) {
	if !strings.Contains(q.lower, "kta") {
		return nil, nil
	}
	if status, ok := quoted(q.raw); ok {
		n, err := r.members.CountContains(ctx, "status_kta", status)
		if err != nil {
			return nil, err
		}
		return answer(
			fmt.Sprintf("Jumlah pengurus dengan status KTA '%s': **%d orang**", status, n),
			map[string]any{"status_kta": status, "count": n},
		), nil
	}
	if strings.Contains(q.lower, "tampilkan status kta") {
		rows, err := r.members.GroupCounts(ctx, "status_kta")
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		text, counts := breakdown("**Status KTA Semua Pengurus:**\n", rows)
		return answer(text, map[string]any{"status_counts": counts}), nil
	}
	return nil, nil
}

func (r *Router) genderRatio(ctx context.Context, q query) (*Answer, error) {
	if !(strings.Contains(q.lower, "rasio") && containsAny(q.lower, "pria", "wanita", "gender")) {
		return nil, nil
	}
	male, err := r.members.CountEquals(ctx, "jenis_kelamin", "Male")
	if err != nil {
		return nil, err
	}
	female, err := r.members.CountEquals(ctx, "jenis_kelamin", "Female")
	if err != nil {
		return nil, err
	}
	total := male + female
	if total == 0 {
		return nil, nil
	}
	malePct := float64(male) / float64(total) * 100
	femalePct := float64(female) / float64(total) * 100
	return answer(
		fmt.Sprintf("**Rasio Gender Pengurus:**\n- Pria: %d orang (%.1f%%)\n- Wanita: %d orang (%.1f%%)", male, malePct, female, femalePct),
		map[string]any{"male": male, "female": female, "male_pct": malePct, "female_pct": femalePct},
	), nil
}

// 自然语言提取姓名时去掉的词，按顺序替换。
var fillerWords = []string{"cari", "info", "lengkap", "siapa", "jabatannya", "apa", "sebagai", "perusahaannya", "umurnya", "kontaknya"}

func (r *Router) memberProfile(ctx context.Context, q query) (*Answer, error) {
	if !containsAny(q.lower, "cari", "info", "siapa", "jabatannya") {
		return nil, nil
	}
	name, ok := quoted(q.lower)
	if !ok {
		rest := q.lower
		for _, w := range fillerWords {
			rest = strings.ReplaceAll(rest, w, " ")
		}
		rest = strings.Trim(rest, " \t?!.,;:")
		if textutil.Len(rest) <= 2 {
			return nil, nil
		}
		name = rest
	}
	m, err := r.findMember(ctx, name)
	if m == nil || err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("**Informasi Lengkap Pengurus:**\n")
	fmt.Fprintf(&b, "- Nama: %s\n", model.Str(m.Name))
	fmt.Fprintf(&b, "- Jabatan: %s\n", model.StrOr(m.Jabatan, notAvailable))
	fmt.Fprintf(&b, "- Status KTA: %s\n", model.StrOr(m.StatusKTA, notAvailable))
	fmt.Fprintf(&b, "- Usia: %s\n", intOr(m.Usia))
	fmt.Fprintf(&b, "- Jenis Kelamin: %s\n", model.StrOr(m.JenisKelamin, notAvailable))
	fmt.Fprintf(&b, "- WhatsApp: %s\n", model.StrOr(m.Phone, notAvailable))
	fmt.Fprintf(&b, "- Email: %s\n", model.StrOr(m.Email, notAvailable))
	fmt.Fprintf(&b, "- Instagram: %s\n", model.StrOr(m.Instagram, notAvailable))
	fmt.Fprintf(&b, "- Perusahaan: %s\n", model.StrOr(m.NamaPerusahaan, notAvailable))
	fmt.Fprintf(&b, "- Jabatan di Perusahaan: %s\n", model.StrOr(m.JabatanDlmAktaPerusahaan, notAvailable))
	fmt.Fprintf(&b, "- Bidang Usaha: %s\n", model.StrOr(m.KategoriBidangUsaha, notAvailable))
	fmt.Fprintf(&b, "- Jumlah Karyawan: %s\n", intOr(m.JmlhKaryawan))

	return answer(b.String(), map[string]any{
		"name":                  m.Name,
		"jabatan":               m.Jabatan,
		"status_kta":            m.StatusKTA,
		"usia":                  m.Usia,
		"jenis_kelamin":         m.JenisKelamin,
		"whatsapp":              m.Phone,
		"email":                 m.Email,
		"instagram":             m.Instagram,
		"nama_perusahaan":       m.NamaPerusahaan,
		"kategori_bidang_usaha": m.KategoriBidangUsaha,
		"jmlh_karyawan":         m.JmlhKaryawan,
	}), nil
}

func (r *Router) memberContact(ctx context.Context, q query) (*Answer, error) {
	if !containsAny(q.lower, "nomor", "wa", "whatsapp", "email", "kontak") {
		return nil, nil
	}
	name, ok := quoted(q.lower)
	if !ok {
		return nil, nil
	}
	m, err := r.findMember(ctx, name)
	if m == nil || err != nil {
		return nil, err
	}
	return answer(
		fmt.Sprintf("**Kontak %s:**\n- WhatsApp: %s\n- Email: %s",
			model.Str(m.Name), model.StrOr(m.Phone, notAvailable), model.StrOr(m.Email, notAvailable)),
		map[string]any{"name": m.Name, "whatsapp": m.Phone, "email": m.Email},
	), nil
}

func (r *Router) memberCompany(ctx context.Context, q query) (*Answer, error) {
	if !(strings.Contains(q.lower, "perusahaan") && strings.Contains(q.lower, "nama")) {
		return nil, nil
	}
	name, ok := quoted(q.lower)
	if !ok {
		return nil, nil
	}
	m, err := r.findMember(ctx, name)
	if m == nil || err != nil {
		return nil, err
	}
	return answer(
		fmt.Sprintf("**Perusahaan %s:**\n- Nama Perusahaan: %s\n- Jabatan: %s\n- Bidang Usaha: %s",
			model.Str(m.Name),
			model.StrOr(m.NamaPerusahaan, notAvailable),
			model.StrOr(m.JabatanDlmAktaPerusahaan, notAvailable),
			model.StrOr(m.KategoriBidangUsaha, notAvailable)),
		map[string]any{
			"name":               m.Name,
			"nama_perusahaan":    m.NamaPerusahaan,
			"jabatan_perusahaan": m.JabatanDlmAktaPerusahaan,
			"bidang_usaha":       m.KategoriBidangUsaha,
		},
	), nil
}

func (r *Router) totalEmployees(ctx context.Context, q query) (*Answer, error) {
	if !(strings.Contains(q.lower, "total") && strings.Contains(q.lower, "karyawan")) {
		return nil, nil
	}
	total, contributors, err := r.members.SumEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return answer(
		fmt.Sprintf("**Total Jumlah Karyawan:**\n- Total karyawan dari semua perusahaan pengurus: **%s karyawan**\n- Dari %d pengurus yang memiliki data karyawan",
			textutil.Thousands(total), contributors),
		map[string]any{"total_karyawan": total, "pengurus_with_data": contributors},
	), nil
}

// findMember 查找姓名包含 name 的成员，找不到时返回 nil, nil。
func (r *Router) findMember(ctx context.Context, name string) (*model.Member, error) {
	m, err := r.members.FirstByNameContains(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return m, err
}

func intOr(v *int) string {
	if v == nil || *v == 0 {
		return notAvailable
	}
	return fmt.Sprintf("%d", *v)
}
