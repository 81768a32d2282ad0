// Package textutil 提供按字符（rune）而非字节处理文本的小工具。
package textutil

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Prefix 返回 s 的前 n 个字符。
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Len 返回 s 的字符数。
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate 在 s 超过 n 个字符时截断并追加 suffix。
func Truncate(s string, n int, suffix string) string {
	if Len(s) <= n {
		return s
	}
	return Prefix(s, n) + suffix
}

// Thousands 以逗号分隔千位格式化整数，例如 1234567 -> "1,234,567"。
func Thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
