package config

import (
	"sync"

	"github.com/livp123/proxylens/internal/utils/logger"
)

// ConfigManager handles all configuration-related operations in a centralized manner
// ConfigManager 以集中方式处理所有配置相关操作
type ConfigManager struct {
	configPath string
	mutex      sync.RWMutex
	config     *GlobalConfig
}

// NewConfigManager creates a new configuration manager instance
// NewConfigManager 创建新的配置管理器实例
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// LoadConfig loads the configuration from the specified path
// LoadConfig 从指定路径加载配置
func (cm *ConfigManager) LoadConfig() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	config, err := LoadGlobalConfig(cm.configPath)
	if err != nil {
		return err
	}

	cm.config = config
	return nil
}

// LoadOrDefault loads the file, falling back to defaults when it does not exist.
// LoadOrDefault 加载配置文件，文件不存在时回退到默认值。
func (cm *ConfigManager) LoadOrDefault() error {
	err := cm.LoadConfig()
	if err == nil {
		return nil
	}
	if !isNotExist(err) {
		return err
	}
	def := DefaultGlobalConfig()
	cm.UpdateConfig(&def)
	return nil
}

// SaveConfig saves the current configuration to the specified path
// SaveConfig 将当前配置保存到指定路径
func (cm *ConfigManager) SaveConfig() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	return SaveGlobalConfig(cm.configPath, cm.config)
}

// GetConfig returns a copy of the current configuration
// GetConfig 返回当前配置的副本
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	cfgCopy := *cm.config
	cfgCopy.Analytics.AttackRules = append([]AttackRule(nil), cm.config.Analytics.AttackRules...)
	return &cfgCopy
}

// UpdateConfig updates the current configuration
// UpdateConfig 更新当前配置
func (cm *ConfigManager) UpdateConfig(newConfig *GlobalConfig) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.config = newConfig
}

// GetLogsConfig returns the log source configuration
// GetLogsConfig 返回日志来源配置
func (cm *ConfigManager) GetLogsConfig() *LogsConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	logsCfg := cm.config.Logs
	return &logsCfg
}

// GetAnalyticsConfig returns the analytics configuration
// GetAnalyticsConfig 返回分析配置
func (cm *ConfigManager) GetAnalyticsConfig() *AnalyticsConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	analyticsCfg := cm.config.Analytics
	analyticsCfg.AttackRules = append([]AttackRule(nil), cm.config.Analytics.AttackRules...)
	return &analyticsCfg
}

// GetStoreConfig returns the performance store configuration
// GetStoreConfig 返回性能存储配置
func (cm *ConfigManager) GetStoreConfig() *StoreConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	storeCfg := cm.config.Store
	return &storeCfg
}

// GetWebConfig returns the web configuration
// GetWebConfig 返回Web配置
func (cm *ConfigManager) GetWebConfig() *WebConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	webCfg := cm.config.Web
	return &webCfg
}

// GetLoggingConfig returns the logging configuration
// GetLoggingConfig 返回日志配置
func (cm *ConfigManager) GetLoggingConfig() *logger.LoggingConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	loggingCfg := cm.config.Logging
	return &loggingCfg
}

// GetConfigPath returns the path this manager reads from.
// GetConfigPath 返回此管理器读取的路径。
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}
