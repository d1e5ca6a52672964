package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	POI       POIConfig       `mapstructure:"poi"`
	Kakao     KakaoConfig     `mapstructure:"kakao"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

// POIConfig controls the place cache and refresh throttle.
type POIConfig struct {
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	MinRefresh time.Duration `mapstructure:"min_refresh"`
	MinMoveM   float64       `mapstructure:"min_move_m"`
	RadiusM    int           `mapstructure:"radius_m"`
}

type KakaoConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StreamConfig struct {
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// LifecycleConfig sets how long after confirmation a meetup is finished
// automatically. Zero disables it.
type LifecycleConfig struct {
	FinishAfter time.Duration `mapstructure:"finish_after"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env")
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "meetpoint")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "meetpoint")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("poi.cache_ttl", 120*time.Second)
	v.SetDefault("poi.min_refresh", 3*time.Second)
	v.SetDefault("poi.min_move_m", 50.0)
	v.SetDefault("poi.radius_m", 1000)
	v.SetDefault("kakao.api_key", "")
	v.SetDefault("kakao.base_url", "https://dapi.kakao.com")
	v.SetDefault("kakao.timeout", 5*time.Second)
	v.SetDefault("stream.heartbeat", 15*time.Second)
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "meetup-lifecycle")
	v.SetDefault("lifecycle.finish_after", 6*time.Hour)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MEETPOINT_DATABASE_HOST → database.host
	v.SetEnvPrefix("MEETPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("kakao.api_key", "MEETPOINT_KAKAO_API_KEY", "KAKAO_REST_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.POI.CacheTTL <= 0 {
		errs = append(errs, "poi.cache_ttl must be positive")
	}
	if c.POI.MinRefresh < 0 {
		errs = append(errs, "poi.min_refresh must not be negative")
	}
	if c.POI.MinMoveM < 0 {
		errs = append(errs, "poi.min_move_m must not be negative")
	}
	if c.POI.RadiusM <= 0 || c.POI.RadiusM > 20000 {
		errs = append(errs, fmt.Sprintf("poi.radius_m must be 1-20000, got %d", c.POI.RadiusM))
	}
	if c.Kakao.BaseURL == "" {
		errs = append(errs, "kakao.base_url is required")
	}
	if c.Stream.Heartbeat <= 0 {
		errs = append(errs, "stream.heartbeat must be positive")
	}
	if c.Temporal.Enabled && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required when temporal is enabled")
	}
	if c.Lifecycle.FinishAfter < 0 {
		errs = append(errs, "lifecycle.finish_after must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
