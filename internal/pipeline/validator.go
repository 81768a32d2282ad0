// Package pipeline 定义了文档入库的核心流程：校验、抽取、分类、持久化与 AI 增强。
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput 表示上传内容不合法（扩展名、大小或文件头错误），不可重试。
	ErrInvalidInput = errors.New("invalid input")
	// ErrExtractionFailure 表示 PDF 容器无法解析，入库中止且不产生记录。
	ErrExtractionFailure = errors.New("extraction failure")
)

// MinPDFSize 是可接受的最小文件字节数。
const MinPDFSize = 1024

var pdfSignature = []byte("%PDF-")

// ValidateContent 在昂贵的解析之前拒绝明显不合法的上传。
func ValidateContent(data []byte, filename string) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return fmt.Errorf("%w: Only PDF files are allowed", ErrInvalidInput)
	}
	if len(data) < MinPDFSize {
		return fmt.Errorf("%w: Invalid PDF file. File is too small (minimum 1KB required). Please upload a valid PDF document.", ErrInvalidInput)
	}
	if !bytes.HasPrefix(data, pdfSignature) {
		return fmt.Errorf("%w: Invalid PDF file. File does not have valid PDF header. Please upload a valid PDF document.", ErrInvalidInput)
	}
	return nil
}
