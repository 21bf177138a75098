package config

import (
	"errors"
	"io/fs"

	"github.com/livp123/proxylens/internal/runtime"
)

/**
 * GetConfigPath resolves the configuration file path.
 * It prioritizes the CLI flag (runtime.ConfigPath) over the default.
 * GetConfigPath 解析配置文件路径。
 * 优先使用 CLI 标志 (runtime.ConfigPath)，其次是默认值。
 */
func GetConfigPath() string {
	if runtime.ConfigPath != "" {
		return runtime.ConfigPath
	}
	return DefaultConfigPath
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
