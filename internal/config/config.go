package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Exam      ExamConfig      `mapstructure:"exam"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
	// 开考/交卷按用户限流，0 表示不限
	AttemptMaxRequests int `mapstructure:"attempt_max_requests"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	// 关闭后只写文件
	Console bool `mapstructure:"console"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	LogLevel  string `mapstructure:"log_level"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServiceName       string `mapstructure:"service_name"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// ExamConfig 考试引擎相关参数，支持热更新
type ExamConfig struct {
	StartLockTTL         time.Duration `mapstructure:"start_lock_ttl"`
	StartLockWait        time.Duration `mapstructure:"start_lock_wait"`
	StartRetries         int           `mapstructure:"start_retries"`
	ExpiryGrace          time.Duration `mapstructure:"expiry_grace"`
	ExpirySweepCron      string        `mapstructure:"expiry_sweep_cron"`
	ExpirySweepBatch     int           `mapstructure:"expiry_sweep_batch"`
	ResultsCacheTTL      time.Duration `mapstructure:"results_cache_ttl"`
	RejectUnknownAnswers bool          `mapstructure:"reject_unknown_answers"`
}

// DefaultExamConfig 配置文件缺省时的取值
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		StartLockTTL:     5 * time.Second,
		StartLockWait:    2 * time.Second,
		StartRetries:     3,
		ExpiryGrace:      2 * time.Minute,
		ExpirySweepCron:  "@every 1m",
		ExpirySweepBatch: 200,
		ResultsCacheTTL:  30 * time.Second,
	}
}

func (c ExamConfig) Validate() error {
	if c.StartRetries < 0 {
		return errors.New("exam.start_retries must not be negative")
	}
	if c.ExpirySweepBatch <= 0 {
		return errors.New("exam.expiry_sweep_batch must be positive")
	}
	if c.ExpiryGrace < 0 || c.StartLockTTL < 0 || c.StartLockWait < 0 || c.ResultsCacheTTL < 0 {
		return errors.New("exam durations must not be negative")
	}
	if c.ExpirySweepCron != "" {
		if _, err := cron.ParseStandard(c.ExpirySweepCron); err != nil {
			return fmt.Errorf("exam.expiry_sweep_cron: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultExamConfig()
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("tracing.service_name", "exam-engine")
	v.SetDefault("log.file", "logs/exam-engine.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.console", true)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.attempt_max_requests", 30)
	v.SetDefault("exam.start_lock_ttl", def.StartLockTTL)
	v.SetDefault("exam.start_lock_wait", def.StartLockWait)
	v.SetDefault("exam.start_retries", def.StartRetries)
	v.SetDefault("exam.expiry_grace", def.ExpiryGrace)
	v.SetDefault("exam.expiry_sweep_cron", def.ExpirySweepCron)
	v.SetDefault("exam.expiry_sweep_batch", def.ExpirySweepBatch)
	v.SetDefault("exam.results_cache_ttl", def.ResultsCacheTTL)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("EXAM_ENGINE")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := cfg.Exam.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
