// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env"`
	StorageConnectionString string        `yaml:"storage_connection_string"`
	MigrationsPath          string        `yaml:"migrations_path"`
	WebhookSecret           string        `yaml:"webhook_secret"`
	RabbitMQURL             string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay"`
	SMTPHost                string        `yaml:"smtp_host"`
	SMTPPort                string        `yaml:"smtp_port"`
	SMTPUser                string        `yaml:"smtp_user"`
	SMTPPass                string        `yaml:"smtp_pass"`
	RenewalCheckInterval    time.Duration `yaml:"renewal_check_interval"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	MeetingProvider         `yaml:"meeting_provider"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// MeetingProvider структура для настройки клиента внешнего сервиса видеовстреч
type MeetingProvider struct {
	MeetingAPIURL   string        `yaml:"meeting_api_url"`
	MeetingAPIToken string        `yaml:"meeting_api_token"`
	HostEmail       string        `yaml:"host_email"`
	MeetingTimeout  time.Duration `yaml:"meeting_timeout"`
}

// MustLoad функция для загрузки конфига, путь берётся из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"RabbitMQURL: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"MeetingProvider:\n"+
			"  URL: %s\n"+
			"  HostEmail: %s\n"+
			"  Timeout: %s\n"+
			"RenewalCheckInterval: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.MigrationsPath,
		c.RabbitMQURL,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.MeetingAPIURL,
		c.HostEmail,
		c.MeetingTimeout,
		c.RenewalCheckInterval,
	)
}
