package sync

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	"github.com/vladislavdragonenkov/crmsync/internal/messaging/kafka"
)

// IngestStatus — исход точечной записи заказа.
type IngestStatus string

const (
	// IngestStatusValid — заказ дописан в валидный леджер.
	IngestStatusValid IngestStatus = "valid"
	// IngestStatusIgnored — заказ дописан в ignored-леджер.
	IngestStatusIgnored IngestStatus = "ignored"
	// IngestStatusDuplicate — заказ уже есть в одном из леджеров.
	IngestStatusDuplicate IngestStatus = "duplicate"
)

// IngestOrder точечно записывает один заказ (путь вебхука). Повторная
// доставка того же заказа безвредна и возвращает IngestStatusDuplicate.
// После записи валидного заказа витрина пересобирается.
func (o *Orchestrator) IngestOrder(ctx context.Context, order domain.Order) (IngestStatus, error) {
	id := domain.NormalizeOrderID(order.OrderID)
	if id == "" {
		return "", domain.ErrOrderIDRequired
	}
	order.OrderID = id

	ingestLogger := o.logger.WithFields(log.Fields{
		"order_id": id,
		"trigger":  domain.SyncTriggerWebhook,
	})

	state, err := o.loadState(ctx)
	if err != nil {
		return "", err
	}
	if state.Seen(id) {
		ingestLogger.Debug("duplicate delivery skipped")
		return IngestStatusDuplicate, nil
	}

	if !order.IsValid() {
		ignored := order.Ignore()
		if err := o.ledger.AppendIgnored(ctx, []domain.IgnoredOrder{ignored}); err != nil {
			if domain.IsDuplicate(err) {
				return IngestStatusDuplicate, nil
			}
			return "", fmt.Errorf("append ignored order: %w", err)
		}
		o.metrics.RecordOrdersAdded("ignored", 1)
		o.publishOrderEvent(kafka.EventTypeOrderIgnored, order, map[string]interface{}{
			"reason": string(ignored.Reason),
		})
		ingestLogger.WithField("reason", ignored.Reason).Info("order ignored")
		return IngestStatusIgnored, nil
	}

	if err := o.ledger.AppendValid(ctx, []domain.Order{order}); err != nil {
		// Гонка с параллельным прогоном: заказ успел записаться между
		// снимком состояния и append — считаем доставку повторной.
		if domain.IsDuplicate(err) {
			return IngestStatusDuplicate, nil
		}
		return "", fmt.Errorf("append valid order: %w", err)
	}
	o.metrics.RecordOrdersAdded("valid", 1)
	o.publishOrderEvent(kafka.EventTypeOrderIngested, order, nil)

	if _, err := o.Rebuild(ctx); err != nil {
		return "", err
	}

	ingestLogger.Info("order ingested")
	return IngestStatusValid, nil
}

func (o *Orchestrator) publishOrderEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if o.events == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.OrderID, order.CustomerKey(), metadata)
	if err := o.events.PublishEvent(kafka.TopicOrderEvents, order.OrderID, event); err != nil {
		o.logger.WithError(err).WithField("event_type", eventType).Warn("failed to publish order event")
	}
}
