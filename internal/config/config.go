package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	Tracing     TracingConfig `mapstructure:"tracing"`
	Redis       RedisConfig
	Inference   InferenceConfig   `mapstructure:"inference"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Quiz        QuizConfig        `mapstructure:"quiz"`
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Log         LogConfig         `mapstructure:"log"`

	// 运行时标志，由命令行参数设置
	ForceMigrate bool   `mapstructure:"-"`
	MigrateOnly  bool   `mapstructure:"-"`
	ConfigPath   string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AdminConfig 启动时确保存在的内容管理员账号
type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	ServiceName       string  `mapstructure:"service_name"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

// LogConfig 日志文件滚动；Level 为空时按 server.mode 决定
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// InferenceConfig 外部手语识别服务
type InferenceConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	TimeoutMs           int           `mapstructure:"timeout_ms"`
	HealthIntervalSec   int           `mapstructure:"health_interval_sec"`
	MaxFrameBytes       int64         `mapstructure:"max_frame_bytes"`
	Timeout             time.Duration `mapstructure:"-"`
	HealthCheckInterval time.Duration `mapstructure:"-"`
}

// RecognitionConfig 转录稳定化参数，可热更新
type RecognitionConfig struct {
	DebounceMs        int `mapstructure:"debounce_ms"`
	DuplicateWindowMs int `mapstructure:"duplicate_window_ms"`
	MaxTranscript     int `mapstructure:"max_transcript"`
	FrameIntervalMs   int `mapstructure:"frame_interval_ms"`
	SessionIdleMin    int `mapstructure:"session_idle_minutes"`
}

type QuizConfig struct {
	StateTTLHours      int `mapstructure:"state_ttl_hours"`
	DictionaryCacheMin int `mapstructure:"dictionary_cache_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SIGNLEARN")
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
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Inference
	v.BindEnv("inference.base_url", "INFERENCE_BASE_URL")

	// Admin
	v.BindEnv("admin.email", "ADMIN_EMAIL")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("inference.base_url", "http://localhost:8000")
	v.SetDefault("inference.timeout_ms", 5000)
	v.SetDefault("inference.health_interval_sec", 5)
	v.SetDefault("inference.max_frame_bytes", 4<<20)
	v.SetDefault("recognition.debounce_ms", 1500)
	v.SetDefault("recognition.duplicate_window_ms", 3000)
	v.SetDefault("recognition.max_transcript", 50)
	v.SetDefault("recognition.frame_interval_ms", 50)
	v.SetDefault("recognition.session_idle_minutes", 30)
	v.SetDefault("quiz.state_ttl_hours", 72)
	v.SetDefault("quiz.dictionary_cache_minutes", 10)
	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("tracing.service_name", "signlearn-backend")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// normalize 换算时间单位并校验生产环境配置
func (cfg *Config) normalize() error {
	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Inference.Timeout = time.Duration(cfg.Inference.TimeoutMs) * time.Millisecond
	cfg.Inference.HealthCheckInterval = time.Duration(cfg.Inference.HealthIntervalSec) * time.Second

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}
	if cfg.Inference.BaseURL == "" {
		return fmt.Errorf("inference.base_url is required")
	}
	if cfg.Recognition.MaxTranscript <= 0 {
		return fmt.Errorf("recognition.max_transcript must be positive, got %d", cfg.Recognition.MaxTranscript)
	}
	return nil
}

func (r RecognitionConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMs) * time.Millisecond
}

func (r RecognitionConfig) DuplicateWindow() time.Duration {
	return time.Duration(r.DuplicateWindowMs) * time.Millisecond
}

func (r RecognitionConfig) FrameInterval() time.Duration {
	return time.Duration(r.FrameIntervalMs) * time.Millisecond
}

func (r RecognitionConfig) SessionIdle() time.Duration {
	return time.Duration(r.SessionIdleMin) * time.Minute
}
