package fmtutil

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatCount tests thousand separators
// TestFormatCount 测试千位分隔符
func TestFormatCount(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-12345, "-12,345"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatCount(tt.input))
	}
}

// TestFormatBytes tests byte formatting
// TestFormatBytes 测试字节格式化
func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1.00KB"},
		{1536, "1.50KB"},
		{1048576, "1.00MB"},
		{1073741824, "1.00GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.input))
	}
}

// TestFormatResponseTime tests millisecond formatting
// TestFormatResponseTime 测试毫秒格式化
func TestFormatResponseTime(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0ms"},
		{-1, "0ms"},
		{math.NaN(), "0ms"},
		{0.25, "250µs"},
		{123.456, "123.46ms"},
		{2500, "2.50s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatResponseTime(tt.input))
	}
}

// TestFormatPercent tests percentage formatting
// TestFormatPercent 测试百分比格式化
func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "33.33%", FormatPercent(33.333))
	assert.Equal(t, "100.00%", FormatPercent(100))
	assert.Equal(t, "0.00%", FormatPercent(math.NaN()))
	assert.Equal(t, "0.00%", FormatPercent(math.Inf(1)))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", FormatTime(time.Time{}))
	ts := time.Date(2025, 1, 10, 12, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))
	assert.Equal(t, "2025-01-10 04:00:00", FormatTime(ts))
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", Ellipsize("short", 10))
	assert.Equal(t, "abcd…", Ellipsize("abcdefgh", 5))
	assert.Equal(t, "日本…", Ellipsize("日本語テキスト", 3))
}

// TestPrintTable tests column alignment
// TestPrintTable 测试列对齐
func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, []string{"IP", "REQUESTS"}, [][]string{
		{"203.0.113.5", "12"},
		{"::1", "3"},
	}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "IP           REQUESTS", lines[0])
	assert.Equal(t, "--           --------", lines[1])
	assert.Equal(t, "203.0.113.5  12", lines[2])
	assert.Equal(t, "::1          3", lines[3])
}
