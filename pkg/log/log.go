// Package log 封装了全局 zap SugaredLogger，供各组件以统一格式记录日志。
// 请求处理路径上使用 FromContext 取得带 requestID 的 Logger。
package log

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 未调用 Init 前使用 Nop logger，单元测试无需初始化日志。
var sugar = zap.NewNop().Sugar()

// Init 按级别、格式（json/console）和输出目录初始化全局 logger。
// outputPath 非空时同时写入 <outputPath>/app.log。
func Init(level, format, outputPath string) error {
	logger, err := buildConfig(level, format, outputPath).Build()
	if err != nil {
		return fmt.Errorf("构建 zap logger 失败: %w", err)
	}
	Use(logger)
	return nil
}

func buildConfig(level, format, outputPath string) zap.Config {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = logLevel
	cfg.OutputPaths = []string{"stdout"}
	if outputPath != "" {
		_ = os.MkdirAll(outputPath, os.ModePerm)
		cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(outputPath, "app.log"))
	}
	return cfg
}

// Use 替换全局 logger。
func Use(logger *zap.Logger) {
	sugar = logger.Sugar()
}

// Logger 是附带固定字段的 logger，例如某个请求的 requestID。
type Logger struct {
	s *zap.SugaredLogger
}

// With 返回在全局 logger 上附加了键值对的 Logger。
func With(keysAndValues ...interface{}) *Logger {
	return &Logger{s: sugar.With(keysAndValues...)}
}

func (l *Logger) Infof(template string, args ...interface{}) { l.s.Infof(template, args...) }
func (l *Logger) Warnf(template string, args ...interface{}) { l.s.Warnf(template, args...) }
func (l *Logger) Errorf(template string, args ...interface{}) { l.s.Errorf(template, args...) }

// Infow 记录 info 级别的结构化日志。
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) { l.s.Infow(msg, keysAndValues...) }

type ctxKey struct{}

// NewContext 把 l 放入 ctx。
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 取出 ctx 中的 Logger，没有时返回全局 logger。
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{s: sugar}
}

// Info 记录一条 info 级别的日志
func Info(msg string) {
	sugar.Info(msg)
}

// Infof 使用格式化字符串记录一条 info 级别的日志
func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

// Error 记录 error 级别日志，err 放在 "error" 字段。
func Error(msg string, err error) {
	sugar.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

// Fatal 记录日志后退出进程。
func Fatal(msg string, err error) {
	sugar.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}

// Sync 刷新缓冲的日志，程序退出前调用。
func Sync() {
	_ = sugar.Sync()
}
