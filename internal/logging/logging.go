// Package logging 基于 slog 的结构化日志
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ContextKey 上下文键类型
type ContextKey string

// RequestIDKey 请求 ID 的上下文键
const RequestIDKey ContextKey = "request_id"

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelInfo, FormatText, os.Stderr)
}

// Level 日志级别
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format 日志输出格式
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseLevel 解析配置文件中的日志级别
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("未知的日志级别: %s", s)
}

// ParseFormat 解析配置文件中的日志格式
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("未知的日志格式: %s", s)
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger 初始化全局日志，w 为 nil 时写到标准错误
func InitLogger(level Level, format Format, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// GetLogger 返回全局日志
func GetLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// WithRequestID 把请求 ID 放入上下文
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 从上下文中取出请求 ID
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext 带上请求 ID 的日志
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if requestID := GetRequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }
func Info(msg string, args ...any)  { GetLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetLogger().Warn(msg, args...) }
func Error(msg string, args ...any) { GetLogger().Error(msg, args...) }

// HTTPRequestContext 记录一次 HTTP 请求
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	allArgs := []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("http_request", allArgs...)
}

// DocumentConverted 记录单个文档转换成功
func DocumentConverted(ctx context.Context, input, output string, changedRunes int, duration time.Duration) {
	LoggerFromContext(ctx).Info("document_converted",
		"input", input,
		"output", output,
		"changed_runes", changedRunes,
		"duration_ms", duration.Milliseconds(),
	)
}

// DocumentFailed 记录单个文档转换失败
func DocumentFailed(ctx context.Context, input string, err error) {
	LoggerFromContext(ctx).Error("document_failed",
		"input", input,
		"error", err.Error(),
	)
}

// BatchSummary 记录批量处理汇总
func BatchSummary(total, succeeded, failed int, duration time.Duration) {
	GetLogger().Info("batch_summary",
		"total", total,
		"succeeded", succeeded,
		"failed", failed,
		"duration_ms", duration.Milliseconds(),
	)
}

// ServerStartup 记录服务启动
func ServerStartup(addr string, args ...any) {
	allArgs := append([]any{"addr", addr}, args...)
	GetLogger().Info("server_startup", allArgs...)
}
