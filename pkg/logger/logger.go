// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	// 添加请求ID
	if reqID, ok := ctx.Value("request_id").(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}

	// 添加科室部门编码
	if dept, ok := ctx.Value("department").(string); ok {
		l = l.With().Str("department", dept).Logger()
	}

	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// WithField 添加字段
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// WithFields 添加多个字段
func WithFields(fields map[string]interface{}) *zerolog.Logger {
	ctx := Get().With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	l := ctx.Logger()
	return &l
}

// RosterLogger 排班建模专用日志器
type RosterLogger struct {
	base *zerolog.Logger
}

// NewRosterLogger 创建排班建模日志器
func NewRosterLogger() *RosterLogger {
	l := Get().With().Str("component", "roster").Logger()
	return &RosterLogger{base: &l}
}

// BuildStart 记录模型构建开始
func (l *RosterLogger) BuildStart(runID string, personnel, days, sections, shifts int) {
	l.base.Info().
		Str("run_id", runID).
		Int("personnel", personnel).
		Int("days", days).
		Int("sections", sections).
		Int("shifts", shifts).
		Msg("开始构建排班模型")
}

// BuildComplete 记录模型构建完成
func (l *RosterLogger) BuildComplete(runID string, columns, rows int, duration time.Duration) {
	l.base.Info().
		Str("run_id", runID).
		Int("columns", columns).
		Int("rows", rows).
		Dur("duration", duration).
		Msg("排班模型构建完成")
}

// ConstraintApplied 记录一族约束生成完毕
func (l *RosterLogger) ConstraintApplied(name string, rows int) {
	l.base.Debug().
		Str("constraint", name).
		Int("rows", rows).
		Msg("约束生成完毕")
}

// SolveComplete 记录求解完成
func (l *RosterLogger) SolveComplete(runID, solver, status string, objective float64, duration time.Duration) {
	l.base.Info().
		Str("run_id", runID).
		Str("solver", solver).
		Str("status", status).
		Float64("objective", objective).
		Dur("duration", duration).
		Msg("求解完成")
}

// DecodeAnomaly 记录解码异常
func (l *RosterLogger) DecodeAnomaly(kind string, person, day int) {
	l.base.Warn().
		Str("kind", kind).
		Int("person", person).
		Int("day", day).
		Msg("解码异常")
}

// DecodeComplete 记录解码完成
func (l *RosterLogger) DecodeComplete(runID string, duties, leaves, anomalies int) {
	l.base.Info().
		Str("run_id", runID).
		Int("duties", duties).
		Int("leaves", leaves).
		Int("anomalies", anomalies).
		Msg("排班解码完成")
}
