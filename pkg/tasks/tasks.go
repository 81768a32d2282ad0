// Package tasks 定义了通过 Kafka 投递的后台任务结构。
package tasks

import "time"

// EnrichmentTask 请求为已入库的文档生成 AI 摘要与洞察。
// 处理方必须幂等：AI 字段已存在时直接跳过。
type EnrichmentTask struct {
	DocumentID  uint      `json:"document_id"`
	FileName    string    `json:"file_name"`
	RequestedAt time.Time `json:"requested_at"`
}
