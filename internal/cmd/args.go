package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 应用信息
const (
	AppName    = "docx-homoglyph"
	AppVersion = "1.0.0"
)

// DefaultOutputDirSuffix 批量模式下输出目录的默认后缀
const DefaultOutputDirSuffix = "_converted"

// ValidateSingleArgs 验证单文件模式参数，未指定输出文件时自动生成
func ValidateSingleArgs(inputFile, outputFile, suffix string) (string, error) {
	if inputFile == "" {
		return "", fmt.Errorf("单文件模式下必须指定输入文件")
	}
	if outputFile == "" {
		outputFile = GenerateOutputFileName(inputFile, suffix)
	}
	return outputFile, nil
}

// ValidateBatchArgs 验证批量模式参数，未指定输出目录时自动生成
func ValidateBatchArgs(inputDir, outputDir string) (string, error) {
	if inputDir == "" {
		return "", fmt.Errorf("批量模式下必须指定输入目录")
	}

	info, err := os.Stat(inputDir)
	if err != nil {
		return "", fmt.Errorf("输入目录不可用: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("输入路径不是目录: %s", inputDir)
	}

	if outputDir == "" {
		outputDir = DefaultOutputDir(inputDir)
	}
	return outputDir, nil
}

// GenerateOutputFileName 在扩展名前插入后缀，report.docx -> report-converted.docx
func GenerateOutputFileName(inputFile, suffix string) string {
	ext := filepath.Ext(inputFile)
	base := strings.TrimSuffix(inputFile, ext)
	return base + suffix + ext
}

// DefaultOutputDir 生成批量模式的输出目录名
func DefaultOutputDir(inputDir string) string {
	return filepath.Clean(inputDir) + DefaultOutputDirSuffix
}
