package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/allanpk716/docx_homoglyph/internal/logging"
)

// 默认值
const (
	DefaultOutputSuffix       = "-converted"
	DefaultMaxConcurrentFiles = 1
	DefaultListenAddr         = ":8080"
	DefaultMaxUploadMB        = 25
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// DefaultExcludePatterns 批量处理时默认跳过的文件
var DefaultExcludePatterns = []string{"~$*", "*.tmp"}

// ProcessingConfig 处理配置
type ProcessingConfig struct {
	OutputSuffix       string   `json:"output_suffix"`
	MaxConcurrentFiles int      `json:"max_concurrent_files"`
	ExcludePatterns    []string `json:"exclude_patterns,omitempty"`
	VerifyEntries      *bool    `json:"verify_entries,omitempty"`
}

// ShouldVerify 是否在转换后校验其他条目未被改动，默认校验
func (pc *ProcessingConfig) ShouldVerify() bool {
	if pc == nil || pc.VerifyEntries == nil {
		return true
	}
	return *pc.VerifyEntries
}

// IsExcluded 检查文件名是否匹配任一排除模式
func (pc *ProcessingConfig) IsExcluded(name string) bool {
	if pc == nil {
		return false
	}
	for _, pattern := range pc.ExcludePatterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	ListenAddr  string `json:"listen_addr"`
	MaxUploadMB int    `json:"max_upload_mb"`
}

// MaxUploadBytes 上传大小上限（字节）
func (sc *ServerConfig) MaxUploadBytes() int64 {
	return int64(sc.MaxUploadMB) << 20
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// setDefaultValues 设置默认值
func setDefaultValues(config *Config) {
	if config.Processing == nil {
		config.Processing = &ProcessingConfig{}
	}
	if config.Processing.OutputSuffix == "" {
		config.Processing.OutputSuffix = DefaultOutputSuffix
	}
	if config.Processing.MaxConcurrentFiles == 0 {
		config.Processing.MaxConcurrentFiles = DefaultMaxConcurrentFiles
	}
	if config.Processing.ExcludePatterns == nil {
		config.Processing.ExcludePatterns = append([]string(nil), DefaultExcludePatterns...)
	}

	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = DefaultListenAddr
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = DefaultMaxUploadMB
	}

	if config.Logging == nil {
		config.Logging = &LoggingConfig{}
	}
	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = DefaultLogFormat
	}
}

// validateProcessingConfig 验证处理配置
func validateProcessingConfig(pc *ProcessingConfig) error {
	if pc.MaxConcurrentFiles < 1 || pc.MaxConcurrentFiles > 50 {
		return fmt.Errorf("最大并发文件数必须在1-50之间")
	}

	if strings.ContainsAny(pc.OutputSuffix, `/\`) {
		return fmt.Errorf("输出文件后缀不能包含路径分隔符: %s", pc.OutputSuffix)
	}

	for _, pattern := range pc.ExcludePatterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("排除模式无效 %q: %w", pattern, err)
		}
	}

	return nil
}

// validateServerConfig 验证服务配置
func validateServerConfig(sc *ServerConfig) error {
	if sc.ListenAddr == "" {
		return fmt.Errorf("监听地址不能为空")
	}
	if sc.MaxUploadMB < 1 || sc.MaxUploadMB > 200 {
		return fmt.Errorf("上传大小上限必须在1-200MB之间")
	}
	return nil
}

// validateLoggingConfig 验证日志配置
func validateLoggingConfig(lc *LoggingConfig) error {
	if _, err := logging.ParseLevel(lc.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(lc.Format); err != nil {
		return err
	}
	return nil
}
