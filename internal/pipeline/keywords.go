package pipeline

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultKeywordCount 是默认返回的关键词数量。
const DefaultKeywordCount = 20

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

// 印尼语与英语停用词。
var stopwords = map[string]struct{}{
	"yang": {}, "dan": {}, "untuk": {}, "pada": {}, "dalam": {}, "dengan": {}, "adalah": {},
	"dari": {}, "ini": {}, "itu": {}, "akan": {}, "dapat": {}, "telah": {}, "atau": {},
	"oleh": {}, "sebagai": {}, "the": {}, "and": {}, "for": {}, "that": {}, "this": {},
	"with": {}, "from": {}, "have": {}, "been": {}, "will": {}, "their": {}, "which": {},
}

// ExtractKeywords 按词频返回前 topN 个关键词。
// 词频相同时先出现的词排在前面，相同输入总是得到相同输出。
func ExtractKeywords(text string, topN int) []string {
	if topN <= 0 {
		topN = DefaultKeywordCount
	}
	counts := make(map[string]int)
	var order []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}
	if order == nil {
		return []string{}
	}
	return order
}
