// Package config 提供配置管理
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 应用配置，全部来自环境变量
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	API       APIConfig       `envPrefix:"API_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `env:"NAME" envDefault:"lunban"`
	Env      string `env:"ENV" envDefault:"development"`
	Port     int    `env:"PORT" envDefault:"7012"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig 数据库配置。Driver 取 postgres 或 sqlite，
// sqlite 用于嵌入式部署，此时只有 Path 生效。
type DatabaseConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"postgres"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"lunban"`
	User            string        `env:"USER" envDefault:"lunban"`
	Password        string        `env:"PASSWORD" envDefault:"lunban123"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	Path            string        `env:"PATH" envDefault:"lunban.db"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN 返回所选驱动的连接串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit   int           `env:"RATE_LIMIT" envDefault:"100"`
	RateWindow  time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10m"`
	AuthEnabled bool          `env:"AUTH_ENABLED" envDefault:"false"`
	Keys        []string      `env:"KEYS" envSeparator:","`
	CORSEnabled bool          `env:"CORS_ENABLED" envDefault:"true"`
	CORSOrigins []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// SchedulerConfig 排班引擎配置
type SchedulerConfig struct {
	Solver          string        `env:"SOLVER" envDefault:"branch_bound"` // branch_bound、glpsol 或 anneal
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"5m"`
	GlpsolPath      string        `env:"GLPSOL_PATH" envDefault:"glpsol"`
	MaxNodes        int           `env:"MAX_NODES" envDefault:"4194304"`
	DecodeThreshold float64       `env:"DECODE_THRESHOLD" envDefault:"0.5"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量配置失败: %w", err)
	}
	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}
