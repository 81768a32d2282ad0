package pipeline

import (
	"strings"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/pkg/textutil"
)

type classifierRule struct {
	terms []string
	typ   model.DocumentType
}

// 文件名规则按优先级排列。"po" 会命中 "report" 等词，保持该顺序以复现既有分类结果。
var filenameRules = []classifierRule{
	{[]string{"po"}, model.TypeHIPMIPO},
	{[]string{"ad"}, model.TypeHIPMIAD},
	{[]string{"art"}, model.TypeHIPMIART},
	{[]string{"sk"}, model.TypeHIPMISK},
	{[]string{"kontrak", "perjanjian", "contract"}, model.TypeContract},
	{[]string{"laporan", "report"}, model.TypeReport},
	{[]string{"proposal"}, model.TypeProposal},
	{[]string{"presentasi", "presentation", "slide"}, model.TypePresentation},
	{[]string{"peraturan", "regulation", "kebijakan"}, model.TypeRegulation},
	{[]string{"manual", "panduan", "guide"}, model.TypeManual},
}

// 正文前 1000 字符的规则。
var headRules = []classifierRule{
	{[]string{"peraturan organisasi"}, model.TypeHIPMIPO},
	{[]string{"anggaran dasar"}, model.TypeHIPMIAD},
	{[]string{"anggaran rumah tangga"}, model.TypeHIPMIART},
	{[]string{"surat keputusan"}, model.TypeHIPMISK},
}

// 正文前 2000 字符的规则。
var bodyRules = []classifierRule{
	{[]string{"hipmi"}, model.TypeHIPMIDocument},
	{[]string{"kontrak", "perjanjian"}, model.TypeContract},
	{[]string{"laporan"}, model.TypeReport},
}

const (
	headWindow = 1000
	bodyWindow = 2000
)

// ClassifyDocument 按固定优先级为文档确定类型，第一条命中的规则生效，默认 OTHER。
func ClassifyDocument(filename, text string) model.DocumentType {
	if t, ok := matchRules(filenameRules, strings.ToLower(filename)); ok {
		return t
	}
	lower := strings.ToLower(text)
	if t, ok := matchRules(headRules, textutil.Prefix(lower, headWindow)); ok {
		return t
	}
	if t, ok := matchRules(bodyRules, textutil.Prefix(lower, bodyWindow)); ok {
		return t
	}
	return model.TypeOther
}

func matchRules(rules []classifierRule, s string) (model.DocumentType, bool) {
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(s, term) {
				return r.typ, true
			}
		}
	}
	return "", false
}
