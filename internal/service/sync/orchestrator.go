package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	"github.com/vladislavdragonenkov/crmsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/crmsync/internal/metrics"
)

const (
	defaultBatchSize = 250

	// sinceBackoff — страховочный отступ от последнего created_at: заказы,
	// созданные в ту же минуту, что и хвост леджера, не должны потеряться.
	sinceBackoff = time.Minute

	// fallbackSince — нижняя граница истории для пустого леджера.
	fallbackSince = "2023-01-01T00:00:00-03:00"
)

// EventPublisher публикует доменные события; реализуется Kafka-продюсером.
type EventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// Config — настройки оркестратора синхронизации.
type Config struct {
	// BatchSize — размер страницы выборки источника (по умолчанию 250).
	BatchSize int
}

// Orchestrator управляет полным циклом синхронизации: инкрементальная
// выборка из источника, дедупликация против обоих леджеров, запись
// новых заказов и пересборка клиентской витрины.
type Orchestrator struct {
	source  domain.OrderSource
	ledger  domain.OrderLedger
	table   domain.CustomerTable
	runs    domain.SyncRunRepository
	metrics *metrics.SyncMetrics
	events  EventPublisher
	logger  *log.Entry

	batchSize int

	// sleep подменяется в тестах, чтобы не ждать rate-limit паузы.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator создает оркестратор синхронизации.
// events может быть nil — тогда события не публикуются.
func NewOrchestrator(
	source domain.OrderSource,
	ledger domain.OrderLedger,
	table domain.CustomerTable,
	runs domain.SyncRunRepository,
	syncMetrics *metrics.SyncMetrics,
	events EventPublisher,
	cfg Config,
) *Orchestrator {
	if syncMetrics == nil {
		syncMetrics = metrics.NewSyncMetrics()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Orchestrator{
		source:    source,
		ledger:    ledger,
		table:     table,
		runs:      runs,
		metrics:   syncMetrics,
		events:    events,
		logger:    log.WithField("component", "sync-orchestrator"),
		batchSize: batchSize,
		sleep:     sleepContext,
	}
}

// SyncIncremental выполняет инкрементальный прогон от точки продолжения,
// выведенной из леджера.
func (o *Orchestrator) SyncIncremental(ctx context.Context, trigger string) (domain.SyncResult, error) {
	since, err := o.SinceFromLedger(ctx)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("resolve since: %w", err)
	}
	return o.Sync(ctx, trigger, since)
}

// Sync выполняет один прогон синхронизации от заданной нижней границы.
// Ноль новых заказов — нормальный успешный результат. Прогон фиксируется
// в истории независимо от исхода.
func (o *Orchestrator) Sync(ctx context.Context, trigger string, since time.Time) (domain.SyncResult, error) {
	run := domain.SyncRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Since:     since,
		StartedAt: time.Now().UTC(),
	}

	runLogger := o.logger.WithFields(log.Fields{
		"run_id":  run.ID,
		"trigger": trigger,
		"since":   since.Format(time.RFC3339),
	})
	runLogger.Info("sync run started")

	o.metrics.RecordRunStarted()
	o.publishSyncEvent(kafka.EventTypeSyncStarted, run.ID, map[string]interface{}{
		"trigger": trigger,
	})

	result, err := o.runSync(ctx, runLogger, since)

	run.FinishedAt = time.Now().UTC()
	run.Result = result
	if err != nil {
		run.Error = err.Error()
	}
	if appendErr := o.runs.Append(ctx, run); appendErr != nil {
		runLogger.WithError(appendErr).Error("failed to record sync run")
	}

	o.metrics.RecordRunDuration(run.FinishedAt.Sub(run.StartedAt))

	if err != nil {
		o.metrics.RecordRunFailed()
		o.publishSyncEvent(kafka.EventTypeSyncFailed, run.ID, map[string]interface{}{
			"error": err.Error(),
		})
		runLogger.WithError(err).Error("sync run failed")
		return result, err
	}

	o.metrics.RecordRunCompleted()
	o.publishSyncEvent(kafka.EventTypeSyncCompleted, run.ID, map[string]interface{}{
		"processed":     result.Processed,
		"added_valid":   result.AddedValid,
		"added_ignored": result.AddedIgnored,
	})
	runLogger.WithFields(log.Fields{
		"processed":         result.Processed,
		"added_valid":       result.AddedValid,
		"added_ignored":     result.AddedIgnored,
		"customers_rebuilt": result.CustomersRebuilt,
	}).Info("sync run completed")

	return result, nil
}

// runSync — тело прогона: выборка, дедупликация и запись по батчам.
// Каждый записанный батч остаётся в леджере даже при падении прогона
// посередине: следующий прогон продолжит с того же места без дублей.
func (o *Orchestrator) runSync(ctx context.Context, runLogger *log.Entry, since time.Time) (domain.SyncResult, error) {
	var result domain.SyncResult

	state, err := o.loadState(ctx)
	if err != nil {
		return result, err
	}

	pager := o.source.FetchPages(domain.FetchRequest{
		Since:     since,
		Order:     domain.FetchAsc,
		BatchSize: o.batchSize,
	})

	for {
		batch, done, err := pager.Next(ctx)
		if err != nil {
			if domain.IsRateLimited(err) {
				retryAfter := domain.RetryAfter(err)
				o.metrics.RecordRateLimitWait()
				runLogger.WithField("retry_after", retryAfter).Warn("source rate limited, backing off")
				if sleepErr := o.sleep(ctx, retryAfter); sleepErr != nil {
					return result, sleepErr
				}
				continue
			}
			return result, fmt.Errorf("fetch page: %w", err)
		}

		if len(batch) > 0 {
			result.Processed += len(batch)
			o.metrics.RecordOrdersProcessed(len(batch))

			valid, ignored := o.partitionBatch(runLogger, state, batch)

			if len(valid) > 0 {
				added, err := o.appendValidBatch(ctx, &state, valid)
				if err != nil {
					return result, fmt.Errorf("append valid orders: %w", err)
				}
				result.AddedValid += added
				if added > 0 {
					o.metrics.RecordOrdersAdded("valid", added)
				}
			}
			if len(ignored) > 0 {
				added, err := o.appendIgnoredBatch(ctx, &state, ignored)
				if err != nil {
					return result, fmt.Errorf("append ignored orders: %w", err)
				}
				result.AddedIgnored += added
				if added > 0 {
					o.metrics.RecordOrdersAdded("ignored", added)
				}
			}
		}

		if done {
			break
		}
	}

	// Витрина зависит только от валидного леджера.
	if result.AddedValid > 0 {
		rebuilt, err := o.Rebuild(ctx)
		if err != nil {
			return result, fmt.Errorf("rebuild customers: %w", err)
		}
		result.CustomersRebuilt = rebuilt
	}

	return result, nil
}

// appendValidBatch дописывает валидную часть батча, переживая гонку с
// параллельным вебхуком: если часть строк успела записаться после снимка
// состояния, конфликт дубликата не роняет прогон — состояние переснимается,
// уже записанные строки отбрасываются и запись повторяется. Остальные
// строки батча при этом не теряются.
func (o *Orchestrator) appendValidBatch(ctx context.Context, state *domain.SyncState, orders []domain.Order) (int, error) {
	for len(orders) > 0 {
		err := o.ledger.AppendValid(ctx, orders)
		if err == nil {
			for _, order := range orders {
				state.MarkValid(order.OrderID)
			}
			return len(orders), nil
		}
		if !domain.IsDuplicate(err) {
			return 0, err
		}

		// Переснимаем id-колонки и убираем уже записанные строки. Если
		// снимок конфликт не объясняет, это настоящий дубликат — отдаём
		// ошибку вместо вечного цикла.
		fresh, loadErr := o.loadState(ctx)
		if loadErr != nil {
			return 0, loadErr
		}
		*state = fresh

		kept := make([]domain.Order, 0, len(orders))
		for _, order := range orders {
			if fresh.Seen(order.OrderID) {
				continue
			}
			kept = append(kept, order)
		}
		if len(kept) == len(orders) {
			return 0, err
		}
		orders = kept
	}
	return 0, nil
}

// appendIgnoredBatch — то же для ignored-части батча.
func (o *Orchestrator) appendIgnoredBatch(ctx context.Context, state *domain.SyncState, orders []domain.IgnoredOrder) (int, error) {
	for len(orders) > 0 {
		err := o.ledger.AppendIgnored(ctx, orders)
		if err == nil {
			for _, order := range orders {
				state.MarkIgnored(order.OrderID)
			}
			return len(orders), nil
		}
		if !domain.IsDuplicate(err) {
			return 0, err
		}

		fresh, loadErr := o.loadState(ctx)
		if loadErr != nil {
			return 0, loadErr
		}
		*state = fresh

		kept := make([]domain.IgnoredOrder, 0, len(orders))
		for _, order := range orders {
			if fresh.Seen(order.OrderID) {
				continue
			}
			kept = append(kept, order)
		}
		if len(kept) == len(orders) {
			return 0, err
		}
		orders = kept
	}
	return 0, nil
}

// partitionBatch отбирает новые заказы батча и раскладывает их по леджерам.
// Решения принимаются против протаскиваемого состояния, чтобы дубли внутри
// прогона (и внутри батча) отфильтровывались без обращения к базе.
func (o *Orchestrator) partitionBatch(runLogger *log.Entry, state domain.SyncState, batch []domain.Order) ([]domain.Order, []domain.IgnoredOrder) {
	valid := make([]domain.Order, 0, len(batch))
	ignored := make([]domain.IgnoredOrder, 0)

	for _, order := range batch {
		id := domain.NormalizeOrderID(order.OrderID)
		if id == "" {
			runLogger.Warn("order without id skipped")
			continue
		}
		order.OrderID = id

		if state.Seen(id) {
			continue
		}

		if order.IsValid() {
			valid = append(valid, order)
			state.MarkValid(id)
		} else {
			ignored = append(ignored, order.Ignore())
			state.MarkIgnored(id)
		}
	}

	return valid, ignored
}

// loadState снимает id-колонки обоих леджеров в состояние прогона.
func (o *Orchestrator) loadState(ctx context.Context) (domain.SyncState, error) {
	validIDs, err := o.ledger.ValidIDs(ctx)
	if err != nil {
		return domain.SyncState{}, fmt.Errorf("load valid ids: %w", err)
	}
	ignoredIDs, err := o.ledger.IgnoredIDs(ctx)
	if err != nil {
		return domain.SyncState{}, fmt.Errorf("load ignored ids: %w", err)
	}
	return domain.NewSyncState(validIDs, ignoredIDs), nil
}

// SinceFromLedger выводит точку продолжения инкремента: максимальный
// created_at валидного леджера минус страховочная минута. Для пустого
// леджера возвращается фиксированное начало истории.
func (o *Orchestrator) SinceFromLedger(ctx context.Context) (time.Time, error) {
	last, err := o.ledger.LastCreatedAt(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("last created at: %w", err)
	}
	if last.IsZero() {
		since, err := time.Parse(time.RFC3339, fallbackSince)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse fallback since: %w", err)
		}
		return since, nil
	}
	return last.Add(-sinceBackoff), nil
}

func (o *Orchestrator) publishSyncEvent(eventType kafka.EventType, runID string, metadata map[string]interface{}) {
	if o.events == nil {
		return
	}
	// События без прогона (пересборка витрины) ключуются типом события.
	key := runID
	if key == "" {
		key = string(eventType)
	}
	event := kafka.NewSyncEvent(eventType, runID, metadata)
	if err := o.events.PublishEvent(kafka.TopicSyncEvents, key, event); err != nil {
		o.logger.WithError(err).WithField("event_type", eventType).Warn("failed to publish sync event")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
