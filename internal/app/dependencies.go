package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	"github.com/vladislavdragonenkov/crmsync/internal/messaging/kafka"
	syncsvc "github.com/vladislavdragonenkov/crmsync/internal/service/sync"
	"github.com/vladislavdragonenkov/crmsync/internal/source/shopify"
	"github.com/vladislavdragonenkov/crmsync/internal/storage/memory"
	"github.com/vladislavdragonenkov/crmsync/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Source       domain.OrderSource
	Ledger       domain.OrderLedger
	Table        domain.CustomerTable
	Runs         domain.SyncRunRepository
	Orchestrator *syncsvc.Orchestrator

	// Store не nil только при работе с PostgreSQL.
	Store *postgres.Store
	// Producer не nil только при настроенном Kafka.
	Producer *kafka.Producer

	Logger *log.Entry
}

// NewDependencies создаёт и инициализирует зависимости приложения.
// Пустой PostgresDSN переключает хранилище на in-memory вариант.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	source, err := shopify.NewClient(cfg.Shopify, nil)
	if err != nil {
		return nil, fmt.Errorf("init shopify client: %w", err)
	}
	deps.Source = source

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Store = store
		deps.Ledger = postgres.NewOrderLedger(store)
		deps.Table = postgres.NewCustomerTable(store)
		deps.Runs = postgres.NewSyncRunRepository(store)
		logger.Info("using postgres storage")
	} else {
		deps.Ledger = memory.NewOrderLedger()
		deps.Table = memory.NewCustomerTable()
		deps.Runs = memory.NewSyncRunRepository()
		logger.Warn("postgres dsn is empty, using in-memory storage")
	}

	// Kafka опционален: без брокеров события просто не публикуются.
	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err == nil {
		deps.Producer = producer
	}

	var events syncsvc.EventPublisher
	if deps.Producer != nil {
		events = deps.Producer
	}

	deps.Orchestrator = syncsvc.NewOrchestrator(
		deps.Source,
		deps.Ledger,
		deps.Table,
		deps.Runs,
		nil,
		events,
		syncsvc.Config{BatchSize: cfg.SyncBatchSize},
	)

	return deps, nil
}

// Close освобождает внешние ресурсы зависимостей.
func (d *Dependencies) Close() {
	closeKafka(d.Producer, d.Logger)
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
