package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allanpk716/docx_homoglyph/internal/config"
	"github.com/allanpk716/docx_homoglyph/internal/domain"
	"github.com/allanpk716/docx_homoglyph/internal/logging"
)

// ProcessSingleFile 处理单个文件
func ProcessSingleFile(ctx context.Context, docProcessor domain.DocumentProcessor, inputFile, outputFile string) (*domain.DocumentInfo, error) {
	logging.Info("处理文件", "input", inputFile, "output", outputFile)

	info, err := docProcessor.ProcessDocument(ctx, inputFile, outputFile)
	if err != nil {
		logging.DocumentFailed(ctx, inputFile, err)
		return nil, fmt.Errorf("处理文件失败: %w", err)
	}
	return info, nil
}

type batchJob struct {
	input  string
	output string
}

type batchResult struct {
	info *domain.DocumentInfo
	err  error
}

// ProcessBatchFiles 批量处理目录中的文件，单个文件失败不会中断整批
func ProcessBatchFiles(ctx context.Context, docProcessor domain.DocumentProcessor, inputDir, outputDir string, pc *config.ProcessingConfig) (*domain.ProcessResult, error) {
	start := time.Now()

	docxFiles, err := FindDocxFiles(inputDir, outputDir, pc)
	if err != nil {
		return nil, fmt.Errorf("查找 DOCX 文件失败: %w", err)
	}
	if len(docxFiles) == 0 {
		return nil, fmt.Errorf("在目录 %s 中没有找到 DOCX 文件", inputDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	logging.Info("找到 DOCX 文件", "count", len(docxFiles), "dir", inputDir)

	workers := 1
	if pc != nil {
		workers = pc.MaxConcurrentFiles
	}

	jobs := make([]batchJob, len(docxFiles))
	for i, inputFile := range docxFiles {
		relPath, err := filepath.Rel(inputDir, inputFile)
		if err != nil {
			relPath = filepath.Base(inputFile)
		}
		jobs[i] = batchJob{input: inputFile, output: filepath.Join(outputDir, relPath)}
	}

	results := RunPool(workers, jobs, func(i int, job batchJob) batchResult {
		if err := ctx.Err(); err != nil {
			return batchResult{err: err}
		}
		logging.Debug("处理文件", "index", i+1, "total", len(jobs), "input", job.input)
		info, err := docProcessor.ProcessDocument(ctx, job.input, job.output)
		return batchResult{info: info, err: err}
	})

	summary := &domain.ProcessResult{TotalFiles: len(docxFiles)}
	for i, r := range results {
		if r.err != nil {
			logging.DocumentFailed(ctx, jobs[i].input, r.err)
			summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", jobs[i].input, r.err))
			continue
		}
		summary.ProcessedFiles++
		summary.ChangedRunes += r.info.ChangedRunes
		summary.Documents = append(summary.Documents, *r.info)
	}
	summary.Success = len(summary.Errors) == 0
	summary.Duration = time.Since(start)

	logging.BatchSummary(summary.TotalFiles, summary.ProcessedFiles, len(summary.Errors), summary.Duration)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// FindDocxFiles 查找目录中的所有 DOCX 文件，跳过排除模式匹配的文件和输出目录
func FindDocxFiles(dir, outputDir string, pc *config.ProcessingConfig) ([]string, error) {
	var docxFiles []string

	skipDir := ""
	if outputDir != "" {
		if abs, err := filepath.Abs(outputDir); err == nil {
			skipDir = abs
		}
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if skipDir != "" && path != dir {
				if abs, err := filepath.Abs(path); err == nil && abs == skipDir {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".docx") {
			return nil
		}
		if pc.IsExcluded(d.Name()) {
			return nil
		}

		docxFiles = append(docxFiles, path)
		return nil
	})

	return docxFiles, err
}
