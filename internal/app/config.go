package app

import (
	"os"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/source/shopify"
)

// Config описывает настройки запуска сервиса синхронизации.
type Config struct {
	// HTTPAddr — адрес вебхук-сервера.
	HTTPAddr string
	// MetricsAddr — адрес HTTP-сервера метрик и health-проверок.
	MetricsAddr string

	// PostgresDSN — строка подключения к PostgreSQL.
	// Пустая — используется in-memory хранилище (локальная разработка).
	PostgresDSN string

	// SyncInterval — период фоновых инкрементальных прогонов.
	SyncInterval time.Duration
	// SyncBatchSize — размер страницы выборки источника.
	SyncBatchSize int

	// Shopify — реквизиты доступа к Admin API источника.
	Shopify shopify.Config
	// WebhookSecret — секрет подписи вебхуков источника.
	WebhookSecret string

	// KafkaBrokers — список брокеров через запятую; пустой — без Kafka.
	KafkaBrokers string
}

// DefaultConfig возвращает базовые настройки сервиса.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:     ":8080",
		MetricsAddr:  ":9090",
		SyncInterval: 10 * time.Minute,
	}
}

// ConfigFromEnv читает конфигурацию из переменных окружения поверх базовой.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CRM_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CRM_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("CRM_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("CRM_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SyncInterval = d
		}
	}

	cfg.Shopify.ShopName = os.Getenv("SHOPIFY_SHOP_NAME")
	cfg.Shopify.AccessToken = os.Getenv("SHOPIFY_ACCESS_TOKEN")
	cfg.Shopify.APIVersion = os.Getenv("SHOPIFY_API_VERSION")
	cfg.WebhookSecret = os.Getenv("SHOPIFY_WEBHOOK_SECRET")

	cfg.KafkaBrokers = os.Getenv("KAFKA_BROKERS")

	return cfg
}
