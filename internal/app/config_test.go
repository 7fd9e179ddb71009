package app

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("expected 10m interval, got %s", cfg.SyncInterval)
	}
	if cfg.PostgresDSN != "" {
		t.Errorf("expected empty dsn, got %s", cfg.PostgresDSN)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CRM_HTTP_ADDR", ":18080")
	t.Setenv("CRM_METRICS_ADDR", ":19090")
	t.Setenv("CRM_POSTGRES_DSN", "postgres://localhost/crm")
	t.Setenv("CRM_SYNC_INTERVAL", "30s")
	t.Setenv("SHOPIFY_SHOP_NAME", "store.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "token")
	t.Setenv("SHOPIFY_API_VERSION", "2024-07")
	t.Setenv("SHOPIFY_WEBHOOK_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")

	cfg := ConfigFromEnv()

	if cfg.HTTPAddr != ":18080" {
		t.Errorf("http addr not read from env: %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":19090" {
		t.Errorf("metrics addr not read from env: %s", cfg.MetricsAddr)
	}
	if cfg.PostgresDSN != "postgres://localhost/crm" {
		t.Errorf("dsn not read from env: %s", cfg.PostgresDSN)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("interval not read from env: %s", cfg.SyncInterval)
	}
	if cfg.Shopify.ShopName != "store.myshopify.com" || cfg.Shopify.AccessToken != "token" || cfg.Shopify.APIVersion != "2024-07" {
		t.Errorf("shopify config not read from env: %+v", cfg.Shopify)
	}
	if cfg.WebhookSecret != "secret" {
		t.Errorf("webhook secret not read from env: %s", cfg.WebhookSecret)
	}
	if cfg.KafkaBrokers != "localhost:9092" {
		t.Errorf("kafka brokers not read from env: %s", cfg.KafkaBrokers)
	}
}

func TestConfigFromEnvIgnoresBadInterval(t *testing.T) {
	t.Setenv("CRM_SYNC_INTERVAL", "not-a-duration")

	cfg := ConfigFromEnv()
	if cfg.SyncInterval != DefaultConfig().SyncInterval {
		t.Errorf("bad interval must keep default, got %s", cfg.SyncInterval)
	}
}
