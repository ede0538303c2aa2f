package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации обоих сервисов платформы.
// Дашборд читает те же секции (server, redis, auth, upstream),
// блоки database/admission нужны только основному API.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MetricsPort  int           `mapstructure:"metrics_port"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Cache, Pub/Sub, recent-буфер).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит общий секрет HS256 и срок жизни токена.
// Секрет конфигурируется одинаково на обоих сервисах и никогда
// не передается по сети.
type AuthConfig struct {
	SharedSecret string        `mapstructure:"shared_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	BcryptCost   int           `mapstructure:"bcrypt_cost"`
}

// AdmissionConfig — пороги контроллера допуска.
type AdmissionConfig struct {
	MaxConcurrent              int64 `mapstructure:"max_concurrent"`
	SaturationThresholdPercent int64 `mapstructure:"saturation_threshold_percent"`
	RetryAfter                 int   `mapstructure:"retry_after_seconds"`
}

// CacheConfig — TTL по классам эндпоинтов.
type CacheConfig struct {
	ReportsTTL time.Duration `mapstructure:"reports_ttl"`
	AuditTTL   time.Duration `mapstructure:"audit_ttl"`
}

// AuditConfig — настройки распределителя аудита.
type AuditConfig struct {
	RecentBufferSize int           `mapstructure:"recent_buffer_size"`
	QueueSize        int           `mapstructure:"queue_size"`
	FlushInterval    time.Duration `mapstructure:"flush_interval"`
	BatchSize        int           `mapstructure:"batch_size"`
}

// UpstreamConfig — как дашборд достукивается до основного API,
// когда Redis-буфер недоступен.
type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ServiceToken string        `mapstructure:"service_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// Читается один раз на старте процесса; горячей перезагрузки нет.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: ADMISSION_MAX_CONCURRENT=200 перекроет admission.max_concurrent
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Общий секрет может прилетать напрямую в ENV (Docker/K8s)
	if s := os.Getenv("AUTH_SHARED_SECRET"); s != "" {
		cfg.Auth.SharedSecret = s
	}
	if cfg.Auth.SharedSecret == "" {
		return nil, errors.New("auth.shared_secret is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("admission.max_concurrent", 100)
	v.SetDefault("admission.saturation_threshold_percent", 80)
	v.SetDefault("admission.retry_after_seconds", 5)
	v.SetDefault("cache.reports_ttl", 2*time.Minute)
	v.SetDefault("cache.audit_ttl", 30*time.Second)
	v.SetDefault("audit.recent_buffer_size", 100)
	v.SetDefault("audit.queue_size", 10000)
	v.SetDefault("audit.flush_interval", 500*time.Millisecond)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("upstream.timeout", 5*time.Second)
	v.SetDefault("upstream.rate_per_sec", 5)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
