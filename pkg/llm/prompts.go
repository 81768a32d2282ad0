package llm

import (
	"context"
	"fmt"
)

// SummaryLength 是摘要提示中要求的目标字符数。
const SummaryLength = 500

// Summarize 请求对 text 生成简短摘要。
func Summarize(ctx context.Context, c Client, text string) (string, error) {
	prompt := fmt.Sprintf("Buatkan ringkasan singkat (%d karakter) dari teks berikut:\n\n%s\n\nRingkasan:", SummaryLength, text)
	return c.Complete(ctx, prompt)
}

// AnswerQuestion 基于给定上下文回答问题。
func AnswerQuestion(ctx context.Context, c Client, question, contextText string) (string, error) {
	prompt := fmt.Sprintf("Berdasarkan konteks berikut, jawab pertanyaan:\n\nKONTEKS:\n%s\n\nPERTANYAAN:\n%s\n\nJAWABAN:", contextText, question)
	return c.Complete(ctx, prompt)
}
