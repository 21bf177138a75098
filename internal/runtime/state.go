package runtime

// ConfigPath stores the path to the configuration file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的配置文件路径。
var ConfigPath string

// Output selects the CLI output format ("table" or "json").
// Output 选择 CLI 输出格式（"table" 或 "json"）。
var Output = "table"
