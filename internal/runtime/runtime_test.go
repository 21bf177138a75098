package runtime

import (
	"testing"
)

// TestConfigPath tests the ConfigPath variable
// TestConfigPath 测试 ConfigPath 变量
func TestConfigPath(t *testing.T) {
	originalPath := ConfigPath
	defer func() {
		ConfigPath = originalPath
	}()

	ConfigPath = "/tmp/proxylens.yaml"
	if ConfigPath != "/tmp/proxylens.yaml" {
		t.Errorf("ConfigPath should be '/tmp/proxylens.yaml', got %s", ConfigPath)
	}
}

// TestOutputDefault tests the default output format
// TestOutputDefault 测试默认输出格式
func TestOutputDefault(t *testing.T) {
	if Output != "table" {
		t.Errorf("Output should default to 'table', got %s", Output)
	}
}
