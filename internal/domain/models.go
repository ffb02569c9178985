package domain

import (
	"context"
	"time"
)

// TextSubstituter 文本替换器接口，实现可以持有状态，每个文档单独创建
type TextSubstituter interface {
	Substitute(text string) string
}

// SubstituterFactory 为每个文档创建新的替换器
type SubstituterFactory func() TextSubstituter

// DocumentProcessor 文档处理器接口
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, inputPath, outputPath string) (*DocumentInfo, error)
	ProcessBytes(ctx context.Context, data []byte) ([]byte, *DocumentInfo, error)
	ValidateDocument(inputPath string) error
}

// ProcessResult 批量处理结果
type ProcessResult struct {
	Success        bool
	TotalFiles     int
	ProcessedFiles int
	ChangedRunes   int
	Duration       time.Duration
	Documents      []DocumentInfo
	Errors         []error
}

// DocumentInfo 单个文档的处理信息
type DocumentInfo struct {
	Path         string
	OutputPath   string
	Size         int64
	OutputSize   int64
	TextRuns     int
	ChangedRunes int
	Duration     time.Duration
	Modified     bool
}
