package config

import "time"

const (
	// DefaultConfigPath is the standard location for the proxylens configuration file.
	// DefaultConfigPath 是 proxylens 配置文件的标准位置。
	DefaultConfigPath = "/etc/proxylens/config.yaml"

	// DefaultLogDir is the reverse proxy's log directory.
	// DefaultLogDir 是反向代理的日志目录。
	DefaultLogDir = "/var/log/nginx"

	// DefaultListenAddr is the HTTP API bind address.
	// DefaultListenAddr 是 HTTP 接口的监听地址。
	DefaultListenAddr = "127.0.0.1:11820"

	// HardMaxLinesPerFile caps logs.max_lines_per_file regardless of configuration.
	// HardMaxLinesPerFile 无论配置如何都限制单文件读取行数。
	HardMaxLinesPerFile = 10000

	// Bounds for logs.read_timeout.
	// logs.read_timeout 的取值范围。
	HardMinReadTimeout = 5 * time.Second
	HardMaxReadTimeout = 10 * time.Second

	// Bounds for logs.max_buffer_mb.
	// logs.max_buffer_mb 的取值范围。
	HardMinBufferMB = 10
	HardMaxBufferMB = 100
)
