package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/allanpk716/docx_homoglyph/internal/homoglyph"
)

// DefaultConfigFile 未指定时查找的配置文件
const DefaultConfigFile = "config.json"

// Config 表示完整的配置文件结构
type Config struct {
	ProjectName string              `json:"project_name,omitempty"`
	Table       string              `json:"table,omitempty"`
	CustomTable map[string][]string `json:"custom_table,omitempty"`
	Seed        *uint64             `json:"seed,omitempty"`
	Processing  *ProcessingConfig   `json:"processing,omitempty"`
	Server      *ServerConfig       `json:"server,omitempty"`
	Logging     *LoggingConfig      `json:"logging,omitempty"`
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Config, error)
	LoadConfigOrDefault(filePath string) (*Config, error)
	ValidateConfig(config *Config) error
	GetTable(config *Config) (homoglyph.Table, error)
	SaveConfig(config *Config, filePath string) error
}

// configManager 配置管理器实现
type configManager struct{}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{}
}

// DefaultConfig 返回全部使用默认值的配置
func DefaultConfig() *Config {
	config := &Config{}
	setDefaultValues(config)
	return config
}

// LoadConfig 从文件加载配置
func (cm *configManager) LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, fmt.Errorf("配置文件路径不能为空")
	}

	// 检查文件扩展名
	if ext := filepath.Ext(filePath); ext != ".json" {
		return nil, fmt.Errorf("配置文件必须是 JSON 格式，当前文件: %s", ext)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("配置文件不存在: %s: %w", filePath, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	setDefaultValues(&config)

	if err := cm.ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault 配置文件不存在时返回默认配置，其他错误照常返回
func (cm *configManager) LoadConfigOrDefault(filePath string) (*Config, error) {
	if filePath == "" {
		return DefaultConfig(), nil
	}

	config, err := cm.LoadConfig(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// ValidateConfig 验证配置的有效性
func (cm *configManager) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if _, err := cm.GetTable(config); err != nil {
		return err
	}

	if config.Processing != nil {
		if err := validateProcessingConfig(config.Processing); err != nil {
			return fmt.Errorf("处理配置无效: %w", err)
		}
	}

	if config.Server != nil {
		if err := validateServerConfig(config.Server); err != nil {
			return fmt.Errorf("服务配置无效: %w", err)
		}
	}

	if config.Logging != nil {
		if err := validateLoggingConfig(config.Logging); err != nil {
			return fmt.Errorf("日志配置无效: %w", err)
		}
	}

	return nil
}

// GetTable 根据配置返回替换表
func (cm *configManager) GetTable(config *Config) (homoglyph.Table, error) {
	if config == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	if config.Table == homoglyph.TableCustom {
		table, err := homoglyph.NewTable(config.CustomTable)
		if err != nil {
			return nil, fmt.Errorf("自定义替换表无效: %w", err)
		}
		return table, nil
	}

	if len(config.CustomTable) > 0 {
		return nil, fmt.Errorf("custom_table 只能在 table 为 %q 时使用", homoglyph.TableCustom)
	}
	return homoglyph.TableByName(config.Table)
}
