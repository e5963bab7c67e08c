// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"
	// База часовых поясов встраивается в бинарник для образов без tzdata.
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы удалённого хранилища.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	Timezone                string `yaml:"timezone" env-default:"Asia/Ho_Chi_Minh"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	Sync                    `yaml:"sync"`
	LocalStorage            `yaml:"local_storage"`
	Auth                    `yaml:"auth"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	KeyPrefix    string        `yaml:"key_prefix" env-default:"huygym:"`
}

// Sync настройки синхронизации с удалённым хранилищем
type Sync struct {
	Driver         string        `yaml:"driver" env-default:"redis"`
	Timeout        time.Duration `yaml:"timeout" env-default:"6s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"10s"`
	MigrationsPath string        `yaml:"migrations_path" env-default:"./migrations"`
}

// LocalStorage каталог локальной резервной копии
type LocalStorage struct {
	Dir string `yaml:"dir" env-default:"./data"`
}

// Auth общий секрет администратора и параметры токена
type Auth struct {
	AdminPasswordHash string        `yaml:"admin_password_hash" env:"ADMIN_PASSWORD_HASH"`
	JWTSecretKey      string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL          time.Duration `yaml:"token_ttl" env-default:"12h"`
}

// RabbitMQ настройки напоминаний об окончании абонемента.
// Пустой URL отключает напоминания.
type RabbitMQ struct {
	URL              string        `yaml:"url" env:"RABBITMQ_URL"`
	ReminderInterval time.Duration `yaml:"reminder_interval" env-default:"12h"`
}

// MustLoad функция для загрузки конфига из файла CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла path и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverRedis:
	case DriverPostgres:
		if c.StorageConnectionString == "" {
			return fmt.Errorf("sync.driver %q requires storage_connection_string", c.Driver)
		}
	default:
		return fmt.Errorf("unknown sync.driver %q", c.Driver)
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("auth.jwt_secret_key is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location возвращает часовой пояс зала.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Timezone: %s\n"+
			"Sync:\n"+
			"  Driver: %s\n"+
			"  Timeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"  KeyPrefix: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"LocalStorage: %s\n"+
			"Auth:\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ enabled: %t\n",
		c.Env,
		c.Timezone,
		c.Driver,
		c.Sync.Timeout,
		c.AddressRedis,
		c.User,
		c.DB,
		c.KeyPrefix,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Dir,
		c.TokenTTL,
		c.URL != "",
	)
}
