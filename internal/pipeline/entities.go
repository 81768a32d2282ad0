package pipeline

import (
	"regexp"

	"github.com/nggaadaotak/kintari-be/internal/model"
)

// maxNumbers 是数字实体的保留上限。
const maxNumbers = 50

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{4}\b`),
		regexp.MustCompile(`\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b`),
		regexp.MustCompile(`\b\d{1,2}\s+(?:Januari|Februari|Maret|April|Mei|Juni|Juli|Agustus|September|Oktober|November|Desember)\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`),
	}
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	urlPattern    = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+62\s?\d{2,3}[-\s]?\d{3,4}[-\s]?\d{3,4}`),
		regexp.MustCompile(`0\d{2,3}[-\s]?\d{3,4}[-\s]?\d{3,4}`),
		regexp.MustCompile(`\(\d{2,3}\)\s?\d{3,4}[-\s]?\d{3,4}`),
	}
	numberPattern = regexp.MustCompile(`\b\d{1,3}(?:[.,]\d{3})*(?:[.,]\d+)?\s*%?\b`)
)

// ExtractEntities 按固定模式从文本中抽取实体。
// 同类实体按模式顺序、再按出现顺序排列，不去重；organizations 保留为空。
func ExtractEntities(text string) model.Entities {
	e := model.NewEntities()
	if text == "" {
		return e
	}
	for _, p := range datePatterns {
		e.Dates = append(e.Dates, p.FindAllString(text, -1)...)
	}
	e.Emails = append(e.Emails, emailPattern.FindAllString(text, -1)...)
	e.URLs = append(e.URLs, urlPattern.FindAllString(text, -1)...)
	for _, p := range phonePatterns {
		e.PhoneNumbers = append(e.PhoneNumbers, p.FindAllString(text, -1)...)
	}
	e.Numbers = append(e.Numbers, numberPattern.FindAllString(text, maxNumbers)...)
	return e
}
