package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/livp123/proxylens/internal/utils/fileutil"
	"github.com/livp123/proxylens/internal/utils/logger"
	pxerrors "github.com/livp123/proxylens/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigTemplate is written by `proxylens init`. It documents every key.
// DefaultConfigTemplate 由 `proxylens init` 写入，记录了每一个配置项。
const DefaultConfigTemplate = `# proxylens Configuration File / proxylens 配置文件

# Log sources / 日志来源
logs:
  # Directory holding per-domain logs ({domain}-access.log, {domain}_ssl-error.log, ...).
  # 存放按域名划分日志的目录。
  dir: "/var/log/nginx"

  # Global access / error logs. May live outside dir; they are allow-listed by exact path.
  # 全局访问/错误日志。可以位于 dir 之外，按精确路径放行。
  global_access_log: "/var/log/nginx/access.log"
  global_error_log: "/var/log/nginx/error.log"

  # Per-read timeout (5s-10s). A timed-out read contributes no lines.
  # 单次读取超时（5s-10s）。超时的读取不贡献任何行。
  read_timeout: "5s"

  # Maximum bytes scanned from the end of one file (10-100 MB).
  # 单个文件从末尾扫描的最大字节数（10-100 MB）。
  max_buffer_mb: 100

  # Hard ceiling on lines read from one file.
  # 单个文件读取行数的硬上限。
  max_lines_per_file: 10000

  # Lines read per file when the caller does not ask for more.
  # 调用方未指定时每个文件读取的行数。
  default_lines: 1000

  # Files read concurrently per batch.
  # 每批并发读取的文件数。
  batch_size: 5

# Analytics / 分析
analytics:
  # Time window for trend, attack and ratio analytics.
  # 趋势、攻击与比例分析的时间窗口。
  window: "24h"

  # Entries returned by ranking endpoints.
  # 排行接口返回的条目数。
  top_k: 10

  # What to do with WAF lines whose timestamp cannot be parsed: "now" or "drop".
  # 无法解析时间戳的 WAF 行的处理方式："now" 或 "drop"。
  waf_timestamp_fallback: "now"

  # Custom attack classification rules, evaluated before the built-in keywords.
  # 自定义攻击分类规则，在内置关键字之前求值。
  # Example / 示例:
  # - name: "Scanner"
  #   expression: 'any(Tags, # contains "scanner")'
  attack_rules: []

# External performance store (PostgreSQL) / 外部性能指标存储
store:
  enabled: false
  database_url: ""
  max_conns: 10
  slow_request_window: "24h"

# HTTP API / HTTP 接口
web:
  enabled: true
  listen: "127.0.0.1:11820"

# Prometheus metrics / Prometheus 指标
metrics:
  enabled: true

# Logging Configuration / 日志配置
logging:
  enabled: false
  level: "info"
  path: "/var/log/proxylens/proxylens.log"
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true
`

// GlobalConfig represents the top-level configuration structure.
// GlobalConfig 表示顶级配置结构。
type GlobalConfig struct {
	Logs      LogsConfig           `yaml:"logs"`
	Analytics AnalyticsConfig      `yaml:"analytics"`
	Store     StoreConfig          `yaml:"store"`
	Web       WebConfig            `yaml:"web"`
	Metrics   MetricsConfig        `yaml:"metrics"`
	Logging   logger.LoggingConfig `yaml:"logging"`
}

// LogsConfig describes where logs live and the read limits applied to them.
// LogsConfig 描述日志位置及其读取限制。
type LogsConfig struct {
	Dir             string `yaml:"dir"`
	GlobalAccessLog string `yaml:"global_access_log"`
	GlobalErrorLog  string `yaml:"global_error_log"`
	ReadTimeout     string `yaml:"read_timeout"`
	MaxBufferMB     int    `yaml:"max_buffer_mb"`
	MaxLinesPerFile int    `yaml:"max_lines_per_file"`
	DefaultLines    int    `yaml:"default_lines"`
	BatchSize       int    `yaml:"batch_size"`
}

// AnalyticsConfig controls windowing and classification.
// AnalyticsConfig 控制时间窗口和分类。
type AnalyticsConfig struct {
	Window               string       `yaml:"window"`
	TopK                 int          `yaml:"top_k"`
	WAFTimestampFallback string       `yaml:"waf_timestamp_fallback"`
	AttackRules          []AttackRule `yaml:"attack_rules"`
}

// AttackRule labels WAF events matching an expr-lang boolean expression.
// AttackRule 为匹配 expr-lang 布尔表达式的 WAF 事件打标签。
type AttackRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// StoreConfig configures the external performance-metrics store.
// StoreConfig 配置外部性能指标存储。
type StoreConfig struct {
	Enabled           bool   `yaml:"enabled"`
	DatabaseURL       string `yaml:"database_url"`
	MaxConns          int32  `yaml:"max_conns"`
	SlowRequestWindow string `yaml:"slow_request_window"`
}

// WebConfig defines the configuration for the HTTP API.
// WebConfig 定义 HTTP 接口配置。
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// MetricsConfig toggles the /metrics endpoint.
// MetricsConfig 控制 /metrics 端点。
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Fallback policies for unparsable WAF timestamps.
const (
	FallbackNow  = "now"
	FallbackDrop = "drop"
)

// DefaultGlobalConfig returns the configuration used when keys are absent.
// DefaultGlobalConfig 返回缺省配置。
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Logs: LogsConfig{
			Dir:             DefaultLogDir,
			GlobalAccessLog: DefaultLogDir + "/access.log",
			GlobalErrorLog:  DefaultLogDir + "/error.log",
			ReadTimeout:     "5s",
			MaxBufferMB:     100,
			MaxLinesPerFile: 10000,
			DefaultLines:    1000,
			BatchSize:       5,
		},
		Analytics: AnalyticsConfig{
			Window:               "24h",
			TopK:                 10,
			WAFTimestampFallback: FallbackNow,
		},
		Store: StoreConfig{
			MaxConns:          10,
			SlowRequestWindow: "24h",
		},
		Web: WebConfig{
			Enabled: true,
			Listen:  DefaultListenAddr,
		},
		Metrics: MetricsConfig{Enabled: true},
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Path:       "/var/log/proxylens/proxylens.log",
			MaxSize:    10, // 10MB
			MaxBackups: 3,
			MaxAge:     30, // 30 days
			Compress:   true,
		},
	}
}

// LoadGlobalConfig loads the configuration from a YAML file.
// LoadGlobalConfig 从 YAML 文件加载配置。
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	safePath := filepath.Clean(path)
	data, err := os.ReadFile(safePath) // #nosec G304 // operator-supplied config path
	if err != nil {
		return nil, err
	}
	return ParseGlobalConfig(data)
}

// ParseGlobalConfig applies YAML on top of the defaults and validates the result.
// ParseGlobalConfig 在默认值之上应用 YAML 并验证结果。
func ParseGlobalConfig(data []byte) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// SaveGlobalConfig writes cfg as YAML using an atomic rename.
// SaveGlobalConfig 使用原子重命名将配置写为 YAML。
func SaveGlobalConfig(path string, cfg *GlobalConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail at request time.
// Validate 检查那些否则会在请求时失败的值。
func (c *GlobalConfig) Validate() error {
	if strings.TrimSpace(c.Logs.Dir) == "" {
		return pxerrors.NewConfigError("logs.dir", c.Logs.Dir)
	}
	if d, err := c.Logs.Timeout(); err != nil || d < HardMinReadTimeout || d > HardMaxReadTimeout {
		return pxerrors.NewConfigError("logs.read_timeout", c.Logs.ReadTimeout)
	}
	if c.Logs.MaxBufferMB < HardMinBufferMB || c.Logs.MaxBufferMB > HardMaxBufferMB {
		return pxerrors.NewConfigError("logs.max_buffer_mb", c.Logs.MaxBufferMB)
	}
	if c.Logs.MaxLinesPerFile <= 0 || c.Logs.MaxLinesPerFile > HardMaxLinesPerFile {
		return pxerrors.NewConfigError("logs.max_lines_per_file", c.Logs.MaxLinesPerFile)
	}
	if c.Logs.DefaultLines <= 0 {
		return pxerrors.NewConfigError("logs.default_lines", c.Logs.DefaultLines)
	}
	if c.Logs.BatchSize <= 0 {
		return pxerrors.NewConfigError("logs.batch_size", c.Logs.BatchSize)
	}
	if _, err := c.Analytics.WindowDuration(); err != nil {
		return pxerrors.NewConfigError("analytics.window", c.Analytics.Window)
	}
	if c.Analytics.TopK <= 0 {
		return pxerrors.NewConfigError("analytics.top_k", c.Analytics.TopK)
	}
	switch c.Analytics.WAFTimestampFallback {
	case FallbackNow, FallbackDrop:
	default:
		return pxerrors.NewConfigError("analytics.waf_timestamp_fallback", c.Analytics.WAFTimestampFallback)
	}
	for i, r := range c.Analytics.AttackRules {
		if r.Name == "" || r.Expression == "" {
			return pxerrors.NewConfigError(fmt.Sprintf("analytics.attack_rules[%d]", i), r.Name)
		}
	}
	if c.Store.Enabled && c.Store.DatabaseURL == "" {
		return pxerrors.NewConfigError("store.database_url", "")
	}
	if _, err := time.ParseDuration(c.Store.SlowRequestWindow); err != nil {
		return pxerrors.NewConfigError("store.slow_request_window", c.Store.SlowRequestWindow)
	}
	return nil
}

// Timeout parses read_timeout.
func (l LogsConfig) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(l.ReadTimeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive timeout %s", d)
	}
	return d, nil
}

// MaxBufferBytes converts max_buffer_mb to bytes.
func (l LogsConfig) MaxBufferBytes() int64 {
	return int64(l.MaxBufferMB) << 20
}

// WindowDuration parses the analytics window.
func (a AnalyticsConfig) WindowDuration() (time.Duration, error) {
	d, err := time.ParseDuration(a.Window)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive window %s", d)
	}
	return d, nil
}
