package sync

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	"github.com/vladislavdragonenkov/crmsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/crmsync/internal/service/crm"
)

// Rebuild детерминированно пересобирает клиентскую витрину из валидного
// леджера: агрегация, оценка цикла покупки, классификация и полная замена
// содержимого таблицы. Возвращает размер новой витрины.
func (o *Orchestrator) Rebuild(ctx context.Context) (int, error) {
	orders, err := o.ledger.ListValid(ctx)
	if err != nil {
		return 0, fmt.Errorf("list valid orders: %w", err)
	}

	aggs := crm.Aggregate(orders, time.Now().UTC())
	stats := crm.EstimateCycle(aggs)
	crm.Classify(aggs, stats)

	if err := o.table.Overwrite(ctx, aggs); err != nil {
		return 0, fmt.Errorf("overwrite customer table: %w", err)
	}

	o.metrics.RecordCustomersRebuilt(len(aggs))
	o.publishSyncEvent(kafka.EventTypeCustomersRebuilt, "", map[string]interface{}{
		"customers": len(aggs),
	})

	summary := crm.Summarize(aggs)
	o.logger.WithFields(log.Fields{
		"customers":              summary.TotalCustomers,
		"revenue":                domain.FormatAmountMinor(summary.RevenueMinor),
		"cycle_sample":           stats.SampleSize,
		"risk_threshold_days":    stats.RiskThresholdDays,
		"dormant_threshold_days": stats.DormantThresholdDays,
	}).Info("customer table rebuilt")

	return len(aggs), nil
}
