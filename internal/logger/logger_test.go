package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestParseLevel 测试日志级别解析
func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning别名", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"大小写与空白", " DEBUG ", slog.LevelDebug},
		{"未知级别默认info", "unknown", slog.LevelInfo},
		{"空字符串默认info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLevel(tt.input)
			if got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, 期望 %v", tt.input, got, tt.expected)
			}
		})
	}
}

// TestLevelTag 测试日志级别标签
func TestLevelTag(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		expected string
	}{
		{"error", slog.LevelError, "ERROR"},
		{"warn", slog.LevelWarn, "WARN "},
		{"info", slog.LevelInfo, "INFO "},
		{"debug", slog.LevelDebug, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := levelTag(tt.level)
			if got != tt.expected {
				t.Errorf("levelTag(%v) = %q, 期望 %q", tt.level, got, tt.expected)
			}
		})
	}
}

// TestFormatAttr 测试属性格式化
func TestFormatAttr(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		attr     slog.Attr
		expected string
	}{
		{
			name:     "无分组",
			attr:     slog.String("controller", "player"),
			expected: "  controller=player",
		},
		{
			name:     "有分组",
			group:    "sim",
			attr:     slog.Int("ticks", 50),
			expected: "  sim.ticks=50",
		},
		{
			name:     "浮点数保留三位小数",
			attr:     slog.Float64("x", 4.0),
			expected: "  x=4.000",
		},
		{
			name:     "布尔值",
			attr:     slog.Bool("grounded", true),
			expected: "  grounded=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatAttr(tt.group, tt.attr)
			if got != tt.expected {
				t.Errorf("formatAttr(%q, %v) = %q, 期望 %q", tt.group, tt.attr, got, tt.expected)
			}
		})
	}
}

// TestConsoleHandlerEnabled 测试 consoleHandler 的级别过滤
func TestConsoleHandlerEnabled(t *testing.T) {
	h := &consoleHandler{level: slog.LevelInfo}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info 级别应该被启用")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("Error 级别应该被启用")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Debug 级别不应该被启用")
	}
}

// TestConsoleHandlerHandle 测试 consoleHandler 的日志输出
func TestConsoleHandlerHandle(t *testing.T) {
	tests := []struct {
		name   string
		crlf   bool
		suffix string
	}{
		{"普通终端", false, "\n"},
		{"原始模式终端", true, "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &consoleHandler{w: &buf, level: slog.LevelDebug, crlf: tt.crlf}

			record := slog.NewRecord(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "ladder mounted", 0)
			record.AddAttrs(slog.String("controller", "player"))

			if err := h.Handle(context.Background(), record); err != nil {
				t.Fatalf("Handle() 返回错误: %v", err)
			}

			output := buf.String()
			if !strings.HasPrefix(output, "12:00:00 INFO  ladder mounted") {
				t.Errorf("输出前缀不正确, 实际: %q", output)
			}
			if !strings.Contains(output, "controller=player") {
				t.Errorf("输出应包含属性, 实际: %q", output)
			}
			if !strings.HasSuffix(output, tt.suffix) {
				t.Errorf("输出应以 %q 结尾, 实际: %q", tt.suffix, output)
			}
			if !tt.crlf && strings.Contains(output, "\r") {
				t.Errorf("普通终端不应输出回车符, 实际: %q", output)
			}
		})
	}
}

// TestConsoleHandlerWithAttrs 测试 WithAttrs 创建新 handler
func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug, crlf: true}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "sim")})

	// 原始 handler 不应该受影响
	if len(h.attrs) != 0 {
		t.Error("原始 handler 的 attrs 不应该被修改")
	}

	record := slog.NewRecord(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "test", 0)
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() 返回错误: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "component=sim") {
		t.Errorf("输出应包含预设属性, 实际: %q", output)
	}
	if !strings.HasSuffix(output, "\r\n") {
		t.Errorf("派生 handler 应保留换行模式, 实际: %q", output)
	}
}

// TestConsoleHandlerWithNestedGroup 测试嵌套分组
func TestConsoleHandlerWithNestedGroup(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	h2 := h.WithGroup("feed").WithGroup("client")

	record := slog.NewRecord(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "test", 0)
	record.AddAttrs(slog.String("addr", "127.0.0.1"))
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() 返回错误: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "feed.client.addr=127.0.0.1") {
		t.Errorf("输出应包含嵌套分组前缀, 实际: %q", output)
	}
}

// TestNewFormats 测试不同格式的 handler 选择
func TestNewFormats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{"json", func(t *testing.T, out string) {
			if !strings.Contains(out, `"msg":"hello"`) {
				t.Errorf("json 输出不正确: %q", out)
			}
		}},
		{"text", func(t *testing.T, out string) {
			if !strings.Contains(out, "msg=hello") {
				t.Errorf("text 输出不正确: %q", out)
			}
		}},
		{"console", func(t *testing.T, out string) {
			if !strings.Contains(out, "INFO  hello") {
				t.Errorf("console 输出不正确: %q", out)
			}
		}},
		{"", func(t *testing.T, out string) {
			if !strings.Contains(out, "INFO  hello") {
				t.Errorf("默认应使用 console 格式: %q", out)
			}
		}},
	}

	for _, tt := range tests {
		t.Run("format_"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, closer, err := New(Config{Level: "debug", Format: tt.format, Output: &buf})
			if err != nil {
				t.Fatalf("New() 返回错误: %v", err)
			}
			defer closer.Close()

			l.Info("hello")
			tt.check(t, buf.String())
		})
	}
}

// TestNewWithFile 测试日志同时写入文件
func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledge.log")
	var buf bytes.Buffer

	l, closer, err := New(Config{Level: "info", Output: &buf, File: path})
	if err != nil {
		t.Fatalf("New() 返回错误: %v", err)
	}
	l.Info("landed", "controller", "player")
	l.Debug("filtered")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() 返回错误: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), "landed") {
		t.Errorf("日志文件应包含记录, 实际: %q", data)
	}
	if strings.Contains(string(data), "filtered") {
		t.Errorf("低于级别的记录不应写入文件, 实际: %q", data)
	}
	if buf.String() != string(data) {
		t.Errorf("终端输出与文件内容不一致: %q vs %q", buf.String(), data)
	}
}

// TestNewWithBadFile 测试日志文件无法打开
func TestNewWithBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "ledge.log")
	if _, _, err := New(Config{File: path}); err == nil {
		t.Fatal("目录不存在时应返回错误")
	}
}

// TestWarnOnce 测试同一个 key 只警告一次
func TestWarnOnce(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(&consoleHandler{w: &buf, level: slog.LevelDebug})

	if !warnOnce(l, "test.step_height", "step height clamped", "value", 2.0) {
		t.Fatal("第一次调用应输出警告")
	}
	if warnOnce(l, "test.step_height", "step height clamped", "value", 2.0) {
		t.Fatal("第二次调用不应输出警告")
	}
	if !warnOnce(l, "test.crouch_height", "crouch height clamped") {
		t.Fatal("不同 key 应输出警告")
	}

	if got := strings.Count(buf.String(), "step height clamped"); got != 1 {
		t.Errorf("警告次数 = %d, 期望 1", got)
	}
	if !strings.Contains(buf.String(), "WARN ") {
		t.Errorf("应使用 WARN 级别, 实际: %q", buf.String())
	}
}
