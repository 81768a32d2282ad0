package model

import (
	"math"
	"time"
)

// isoFormat 与前端约定的时间格式（ISO 8601，不带时区）。
const isoFormat = "2006-01-02T15:04:05.999999"

// FormatTime 将时间格式化为 ISO 8601 字符串，nil 或零值返回 nil。
func FormatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(isoFormat)
	return &s
}

// Round 按指定小数位四舍五入。
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
