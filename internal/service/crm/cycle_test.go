package crm

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

func repeatCustomer(key string, count int, spanDays int) domain.CustomerAggregate {
	last := testNow.AddDate(0, 0, -1)
	return domain.CustomerAggregate{
		CustomerKey:  key,
		OrderCount:   count,
		FirstOrderAt: last.AddDate(0, 0, -spanDays),
		LastOrderAt:  last,
	}
}

func TestEstimateCycleFallbackOnSmallSample(t *testing.T) {
	aggs := []domain.CustomerAggregate{
		repeatCustomer("a", 2, 10),
		repeatCustomer("b", 3, 30),
		{CustomerKey: "single", OrderCount: 1},
	}

	stats := EstimateCycle(aggs)
	if !stats.Fallback {
		t.Fatal("expected fallback thresholds")
	}
	if stats.SampleSize != 2 {
		t.Fatalf("expected sample of 2, got %d", stats.SampleSize)
	}
	if stats.RiskThresholdDays != domain.DefaultRiskThresholdDays {
		t.Fatalf("expected risk %d, got %d", domain.DefaultRiskThresholdDays, stats.RiskThresholdDays)
	}
	if stats.DormantThresholdDays != domain.DefaultDormantThresholdDays {
		t.Fatalf("expected dormant %d, got %d", domain.DefaultDormantThresholdDays, stats.DormantThresholdDays)
	}
}

func TestEstimateCycleComputesThresholds(t *testing.T) {
	// Пять повторных клиентов с циклами 10, 20, 30, 40, 50 — медиана 30.
	aggs := []domain.CustomerAggregate{
		repeatCustomer("a", 2, 10),
		repeatCustomer("b", 2, 20),
		repeatCustomer("c", 2, 30),
		repeatCustomer("d", 2, 40),
		repeatCustomer("e", 2, 50),
	}

	stats := EstimateCycle(aggs)
	if stats.Fallback {
		t.Fatal("expected data-driven thresholds")
	}
	if stats.SampleSize != 5 {
		t.Fatalf("expected sample of 5, got %d", stats.SampleSize)
	}
	if stats.MedianCycleDays != 30 {
		t.Fatalf("expected median 30, got %f", stats.MedianCycleDays)
	}
	if stats.MeanCycleDays != 30 {
		t.Fatalf("expected mean 30, got %f", stats.MeanCycleDays)
	}
	if stats.RiskThresholdDays != 45 {
		t.Fatalf("expected risk 45, got %d", stats.RiskThresholdDays)
	}
	if stats.DormantThresholdDays != 90 {
		t.Fatalf("expected dormant 90, got %d", stats.DormantThresholdDays)
	}
}

func TestEstimateCycleDividesSpanByIntervals(t *testing.T) {
	// 4 заказа за 30 дней — 3 интервала, цикл 10 дней.
	aggs := []domain.CustomerAggregate{
		repeatCustomer("a", 4, 30),
		repeatCustomer("b", 4, 30),
		repeatCustomer("c", 4, 30),
		repeatCustomer("d", 4, 30),
		repeatCustomer("e", 4, 30),
	}

	stats := EstimateCycle(aggs)
	if stats.MedianCycleDays != 10 {
		t.Fatalf("expected cycle 10, got %f", stats.MedianCycleDays)
	}
	if stats.RiskThresholdDays != 15 || stats.DormantThresholdDays != 30 {
		t.Fatalf("unexpected thresholds: %+v", stats)
	}
}

func TestEstimateCycleExcludesCorruptedWindows(t *testing.T) {
	// last раньше first — битые даты, клиент вне выборки.
	corrupted := domain.CustomerAggregate{
		CustomerKey:  "bad",
		OrderCount:   2,
		FirstOrderAt: testNow,
		LastOrderAt:  testNow.Add(-48 * time.Hour),
	}

	aggs := []domain.CustomerAggregate{
		corrupted,
		repeatCustomer("a", 2, 10),
		repeatCustomer("b", 2, 20),
		repeatCustomer("c", 2, 30),
		repeatCustomer("d", 2, 40),
	}

	stats := EstimateCycle(aggs)
	if !stats.Fallback {
		t.Fatal("corrupted window must not count toward the sample")
	}
	if stats.SampleSize != 4 {
		t.Fatalf("expected sample of 4, got %d", stats.SampleSize)
	}
}
