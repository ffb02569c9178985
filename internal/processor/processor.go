package processor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	worddoc "github.com/nguyenthenguyen/docx"

	"github.com/allanpk716/docx_homoglyph/internal/domain"
	"github.com/allanpk716/docx_homoglyph/internal/logging"
	"github.com/allanpk716/docx_homoglyph/pkg/docx"
)

// DocxExtension 支持的文件扩展名
const DocxExtension = ".docx"

// documentProcessor 文档处理器实现
type documentProcessor struct {
	newSubstituter domain.SubstituterFactory
	verifyEntries  bool
}

// NewDocumentProcessor 创建新的文档处理器
// verifyEntries 为 true 时，转换后检查正文以外的条目与原文件一致
func NewDocumentProcessor(factory domain.SubstituterFactory, verifyEntries bool) domain.DocumentProcessor {
	return &documentProcessor{
		newSubstituter: factory,
		verifyEntries:  verifyEntries,
	}
}

// ProcessDocument 转换单个文件，失败时不会留下输出文件
func (dp *documentProcessor) ProcessDocument(ctx context.Context, inputPath, outputPath string) (*domain.DocumentInfo, error) {
	if err := dp.ValidateDocument(inputPath); err != nil {
		return nil, fmt.Errorf("文档验证失败: %w", err)
	}

	if outputPath == "" {
		return nil, fmt.Errorf("输出路径不能为空")
	}
	if samePath(inputPath, outputPath) {
		return nil, fmt.Errorf("输出路径不能与输入路径相同: %s", outputPath)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("读取文档失败: %w", err)
	}

	if err := validatePackage(data); err != nil {
		return nil, err
	}

	logging.LoggerFromContext(ctx).Debug("开始处理文档", "input", inputPath)

	out, info, err := dp.ProcessBytes(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(outputPath, out); err != nil {
		return nil, err
	}

	info.Path = inputPath
	info.OutputPath = outputPath
	logging.DocumentConverted(ctx, inputPath, outputPath, info.ChangedRunes, info.Duration)
	return info, nil
}

// ProcessBytes 转换内存中的文档
func (dp *documentProcessor) ProcessBytes(ctx context.Context, data []byte) ([]byte, *domain.DocumentInfo, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	var sub docx.Substituter
	if dp.newSubstituter != nil {
		sub = dp.newSubstituter()
	}

	pipeline := docx.NewPipeline(sub, logging.LoggerFromContext(ctx))
	res, err := pipeline.Transform(data)
	if err != nil {
		return nil, nil, err
	}

	if dp.verifyEntries {
		if err := verifyOutput(data, res.Data); err != nil {
			return nil, nil, err
		}
	}

	return res.Data, &domain.DocumentInfo{
		Size:         int64(len(data)),
		OutputSize:   int64(len(res.Data)),
		TextRuns:     res.Stats.TextRuns,
		ChangedRunes: res.Stats.ChangedRunes,
		Duration:     res.Stats.Elapsed,
		Modified:     res.Stats.ChangedRunes > 0,
	}, nil
}

// ValidateDocument 验证输入路径
func (dp *documentProcessor) ValidateDocument(inputPath string) error {
	if inputPath == "" {
		return &docx.InvalidInputError{Reason: docx.ReasonNoFile}
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return &docx.InvalidInputError{Reason: docx.ReasonNoFile, Entry: inputPath, Err: err}
	}
	if info.IsDir() {
		return fmt.Errorf("输入路径是目录: %s", inputPath)
	}

	if !strings.EqualFold(filepath.Ext(inputPath), DocxExtension) {
		return fmt.Errorf("不支持的文件格式，仅支持 %s: %s", DocxExtension, inputPath)
	}

	return nil
}

// validatePackage 确认输入是包含正文的 zip 容器，
// 再用 Word 文档读取器检查正文、关系、页眉页脚能否一起读出
func validatePackage(data []byte) error {
	archive, err := docx.OpenArchive(data)
	if err != nil {
		return err
	}
	if !archive.Has(docx.BodyEntryName) {
		return &docx.InvalidInputError{Reason: docx.ReasonMissingBody, Entry: docx.BodyEntryName}
	}

	doc, err := worddoc.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &docx.InvalidInputError{Reason: docx.ReasonNotContainer, Err: err}
	}
	return doc.Close()
}

// verifyOutput 确认只有正文条目发生变化
func verifyOutput(before, after []byte) error {
	in, err := docx.Manifest(before)
	if err != nil {
		return fmt.Errorf("计算输入清单失败: %w", err)
	}
	out, err := docx.Manifest(after)
	if err != nil {
		return &docx.SerializationError{Err: fmt.Errorf("计算输出清单失败: %w", err)}
	}
	if err := docx.VerifyEntries(in, out, docx.BodyEntryName); err != nil {
		return &docx.SerializationError{Err: err}
	}
	return nil
}

// writeFileAtomic 先写临时文件再重命名
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("保存输出文件失败: %w", err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
