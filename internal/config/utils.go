package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allanpk716/docx_homoglyph/internal/logging"
)

// SaveConfig 保存配置到文件，已有文件先备份
func (cm *configManager) SaveConfig(config *Config, filePath string) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	if err := createBackup(filePath); err != nil {
		logging.Warn("创建配置备份失败", "path", filePath, "error", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// createBackup 创建配置文件备份，文件不存在时跳过
func createBackup(filePath string) error {
	src, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取原文件失败: %w", err)
	}

	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", name, timestamp, ext))

	if err := os.WriteFile(backupPath, src, 0644); err != nil {
		return fmt.Errorf("写入备份文件失败: %w", err)
	}

	logging.Info("配置备份已创建", "path", backupPath)
	return nil
}

// ApplyLogging 按配置初始化全局日志，verbose 时强制使用 debug 级别
func ApplyLogging(config *Config, verbose bool) error {
	lc := config.Logging
	if lc == nil {
		lc = &LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat}
	}

	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = logging.LevelDebug
	}

	format, err := logging.ParseFormat(lc.Format)
	if err != nil {
		return err
	}

	logging.InitLogger(level, format, os.Stderr)
	return nil
}
