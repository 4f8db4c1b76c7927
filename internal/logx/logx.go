// 包 logx 是对标准库 slog 的薄封装：
// - 支持级别/格式/语言/颜色配置，输出目标可替换（测试中写入缓冲区）
// - 提供 pretty 输出（[调试]/[信息]/[警告]/[错误] 或英文标签）
// - 解析核心的诊断信息（媒体替换、找不到文件、视频标记异常）统一经由这里输出
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init 以 os.Stdout 为输出初始化全局日志器。
func Init(level, format, locale, colorMode string) {
	InitWriter(os.Stdout, level, format, locale, colorMode)
}

// InitWriter 根据 level/format/locale/colorMode 初始化写入 w 的全局日志器。
// format 取 json|text|pretty，空串视为 pretty。
func InitWriter(w io.Writer, level, format, locale, colorMode string) {
	lv := parseSlogLevel(level)
	opts := &slog.HandlerOptions{Level: lv}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "pretty", "":
		handler = NewPrettyHandler(w, lv, locale, colorMode)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ValidLevel 报告 s 是否为可识别的日志级别（供配置校验使用）。
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error", "none", "silent", "off":
		return true
	}
	return false
}

// parseSlogLevel 将字符串级别解析为 slog.Leveler。
func parseSlogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "silent", "off":
		return levelSilent
	default:
		return slog.LevelInfo
	}
}

// levelSilent 高于所有实际级别，用于关闭输出。
const levelSilent slog.Level = 100

// 便捷函数：格式化并按级别输出
func Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { slog.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }

// With 返回附带固定属性的日志器，如 logx.With("blog", name, "run", id)。
func With(args ...any) *slog.Logger { return slog.Default().With(args...) }
