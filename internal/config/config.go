package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	Mode      string          `mapstructure:"mode"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds per-class sustained request rates (per second, per
// client IP) with a shared burst allowance.
type RateLimitConfig struct {
	General float64 `mapstructure:"general"`
	Upload  float64 `mapstructure:"upload"`
	AI      float64 `mapstructure:"ai"`
	Burst   int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type ExtractorConfig struct {
	Model     string        `mapstructure:"model"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

type QueueConfig struct {
	// Mode selects the backend: "redis" for the shared broker, "inline"
	// for the in-process backend (single binary, no redis).
	Mode      string        `mapstructure:"mode"`
	Workers   int           `mapstructure:"workers"`
	Retention time.Duration `mapstructure:"retention"`
}

type UploadConfig struct {
	TempDir           string   `mapstructure:"temp_dir"`
	MaxFileSize       int64    `mapstructure:"max_file_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiry     time.Duration `mapstructure:"jwt_expiry"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type ActivityConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	RetentionDays int  `mapstructure:"retention_days"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Environment string `mapstructure:"environment"`
	File        string `mapstructure:"file"`
	FileOnly    bool   `mapstructure:"file_only"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Config file is optional; env + defaults are enough to boot
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("server.rate_limit.general", 10.0)
	v.SetDefault("server.rate_limit.upload", 2.0)
	v.SetDefault("server.rate_limit.ai", 1.0)
	v.SetDefault("server.rate_limit.burst", 20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/formintake.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.bucket", "display-form-extract")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("extractor.model", "gpt-4o-mini")
	v.SetDefault("extractor.base_url", "https://api.openai.com/v1")
	v.SetDefault("extractor.timeout", 60*time.Second)
	v.SetDefault("extractor.max_tokens", 1500)

	v.SetDefault("queue.mode", "redis")
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.retention", time.Hour)

	v.SetDefault("upload.temp_dir", "./temp_uploads")
	v.SetDefault("upload.max_file_size", 10<<20)
	v.SetDefault("upload.allowed_extensions", []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"})

	v.SetDefault("auth.jwt_expiry", 24*time.Hour)

	v.SetDefault("activity.enabled", true)
	v.SetDefault("activity.retention_days", 90)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "local")
}
