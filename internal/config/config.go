package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" envDefault:"file://internal/database/migrations"`
	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Сколько загрузок обрабатывается одновременно; остальные ждут своей очереди.
	UploadConcurrency int `env:"UPLOAD_CONCURRENCY" envDefault:"5"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Настройки S3-совместимого хранилища (MinIO, AWS S3, R2...).
	// Не помечены required: без них сервер стартует, но загрузка отвечает
	// "server storage not configured".
	Storage struct {
		Endpoint        string `env:"S3_ENDPOINT"`
		AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
		Region          string `env:"S3_REGION" envDefault:"us-east-1"`
		UseSSL          bool   `env:"S3_USE_SSL"`
		BucketName      string `env:"S3_BUCKET_NAME" envDefault:"prompt-images"`
		PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
	}

	// Автор по умолчанию для формы загрузки, пока нет авторизации.
	DefaultAuthor struct {
		Email  string `env:"DEFAULT_AUTHOR_EMAIL" envDefault:"demo@promptreveal.app"`
		Name   string `env:"DEFAULT_AUTHOR_NAME" envDefault:"PromptReveal Demo"`
		Avatar string `env:"DEFAULT_AUTHOR_AVATAR"`
	}
	GuestEmailDomain string `env:"GUEST_EMAIL_DOMAIN" envDefault:"guest.promptreveal.app"`

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"orphan_cleanup_queue"`
	}

	ViewCache struct {
		Size int           `env:"VIEW_CACHE_SIZE" envDefault:"256"`
		TTL  time.Duration `env:"VIEW_CACHE_TTL" envDefault:"60s"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	return &cfg, nil
}

// StorageConfigured сообщает, заданы ли endpoint, ключи доступа и бакет.
func (c *Config) StorageConfigured() bool {
	s := c.Storage
	return s.Endpoint != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.BucketName != ""
}

// QueueConfigured сообщает, подключена ли очередь очистки "осиротевших" объектов.
func (c *Config) QueueConfigured() bool {
	return c.RabbitMQ.RabbitMQURL != ""
}
