package crm

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return testNow.AddDate(0, 0, offset)
}

func TestAggregateGroupsByCustomerKey(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "1", CustomerID: "a", CustomerName: "Ana", Email: "ana@x.com", AmountMinor: 10000, CreatedAt: day(-10)},
		{OrderID: "2", CustomerID: "a", CustomerName: "Ana Souza", Email: "ana@x.com", AmountMinor: 15000, CreatedAt: day(-5)},
		{OrderID: "3", CustomerID: "b", CustomerName: "Bo", Email: "bo@x.com", AmountMinor: 5000, CreatedAt: day(-1)},
	}

	aggs := Aggregate(orders, testNow)
	if len(aggs) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(aggs))
	}

	// Порядок витрины: по сумме убыв.
	a := aggs[0]
	if a.CustomerKey != "a" {
		t.Fatalf("expected customer a first, got %s", a.CustomerKey)
	}
	if a.OrderCount != 2 {
		t.Fatalf("expected 2 orders, got %d", a.OrderCount)
	}
	if a.TotalMinor != 25000 {
		t.Fatalf("expected total 25000, got %d", a.TotalMinor)
	}
	if !a.FirstOrderAt.Equal(day(-10)) || !a.LastOrderAt.Equal(day(-5)) {
		t.Fatalf("unexpected window: %v .. %v", a.FirstOrderAt, a.LastOrderAt)
	}
	// Имя — из хронологически последнего заказа.
	if a.DisplayName != "Ana Souza" {
		t.Fatalf("expected last-seen name, got %q", a.DisplayName)
	}
	if a.DaysSinceLast == nil || *a.DaysSinceLast != 5 {
		t.Fatalf("expected 5 days since last, got %v", a.DaysSinceLast)
	}
}

func TestAggregateEmailFallbackKey(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "1", Email: "No.Reply@Shop.COM ", AmountMinor: 100, CreatedAt: day(-2)},
		{OrderID: "2", Email: "no.reply@shop.com", AmountMinor: 200, CreatedAt: day(-1)},
	}

	aggs := Aggregate(orders, testNow)
	if len(aggs) != 1 {
		t.Fatalf("expected one synthesized customer, got %d", len(aggs))
	}
	if aggs[0].CustomerKey != "email:no.reply@shop.com" {
		t.Fatalf("unexpected key %q", aggs[0].CustomerKey)
	}
	if aggs[0].OrderCount != 2 || aggs[0].TotalMinor != 300 {
		t.Fatalf("unexpected aggregate: %+v", aggs[0])
	}
}

func TestAggregateSkipsKeylessOrders(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "1", AmountMinor: 100, CreatedAt: day(-1)},
		{OrderID: "2", CustomerID: "c", AmountMinor: 200, CreatedAt: day(-1)},
	}

	aggs := Aggregate(orders, testNow)
	if len(aggs) != 1 || aggs[0].CustomerKey != "c" {
		t.Fatalf("expected only keyed customer, got %+v", aggs)
	}
}

func TestAggregateUnparseableTimestamp(t *testing.T) {
	// Нулевая дата не двигает границы окна, но строка остаётся в count/sum.
	orders := []domain.Order{
		{OrderID: "1", CustomerID: "a", AmountMinor: 100, CreatedAt: day(-3)},
		{OrderID: "2", CustomerID: "a", AmountMinor: 200}, // дата не распарсилась
	}

	aggs := Aggregate(orders, testNow)
	a := aggs[0]
	if a.OrderCount != 2 || a.TotalMinor != 300 {
		t.Fatalf("count/sum must include unparseable rows: %+v", a)
	}
	if !a.FirstOrderAt.Equal(day(-3)) || !a.LastOrderAt.Equal(day(-3)) {
		t.Fatalf("window must ignore zero timestamps: %+v", a)
	}
	if a.DaysSinceLast == nil || *a.DaysSinceLast != 3 {
		t.Fatalf("unexpected recency: %v", a.DaysSinceLast)
	}
}

func TestAggregateAllTimestampsUnparseable(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "1", CustomerID: "a", AmountMinor: 100},
	}

	aggs := Aggregate(orders, testNow)
	if aggs[0].DaysSinceLast != nil {
		t.Fatalf("recency must stay nil, got %v", *aggs[0].DaysSinceLast)
	}
	if aggs[0].OrderCount != 1 {
		t.Fatalf("customer must not be dropped: %+v", aggs[0])
	}
}

func TestAggregateClampsFutureDates(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "1", CustomerID: "a", AmountMinor: 100, CreatedAt: day(2)},
	}

	aggs := Aggregate(orders, testNow)
	if aggs[0].DaysSinceLast == nil || *aggs[0].DaysSinceLast != 0 {
		t.Fatalf("future-dated order must clamp to 0 days, got %v", aggs[0].DaysSinceLast)
	}
}

func TestAggregateDeterministicOrder(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "1", CustomerID: "small", AmountMinor: 100, CreatedAt: day(-1)},
		{OrderID: "2", CustomerID: "big", AmountMinor: 900, CreatedAt: day(-9)},
		{OrderID: "3", CustomerID: "mid", AmountMinor: 500, CreatedAt: day(-2)},
	}

	for i := 0; i < 10; i++ {
		aggs := Aggregate(orders, testNow)
		if aggs[0].CustomerKey != "big" || aggs[1].CustomerKey != "mid" || aggs[2].CustomerKey != "small" {
			t.Fatalf("unexpected order on run %d: %v, %v, %v", i, aggs[0].CustomerKey, aggs[1].CustomerKey, aggs[2].CustomerKey)
		}
	}
}
