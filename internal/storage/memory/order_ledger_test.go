package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

func TestOrderLedgerAppendAndRead(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger()

	now := time.Now().UTC()
	orders := []domain.Order{
		{OrderID: "2", CustomerID: "a", AmountMinor: 200, CreatedAt: now},
		{OrderID: "1", CustomerID: "a", AmountMinor: 100, CreatedAt: now.Add(-time.Hour)},
	}

	if err := ledger.AppendValid(ctx, orders); err != nil {
		t.Fatalf("append valid: %v", err)
	}

	ids, err := ledger.ValidIDs(ctx)
	if err != nil {
		t.Fatalf("valid ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}

	listed, err := ledger.ListValid(ctx)
	if err != nil {
		t.Fatalf("list valid: %v", err)
	}
	if listed[0].OrderID != "1" || listed[1].OrderID != "2" {
		t.Fatalf("expected chronological order, got %v, %v", listed[0].OrderID, listed[1].OrderID)
	}

	last, err := ledger.LastCreatedAt(ctx)
	if err != nil {
		t.Fatalf("last created at: %v", err)
	}
	if !last.Equal(now) {
		t.Fatalf("expected %v, got %v", now, last)
	}
}

func TestOrderLedgerRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger()

	if err := ledger.AppendValid(ctx, []domain.Order{{OrderID: "1", AmountMinor: 1}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	err := ledger.AppendValid(ctx, []domain.Order{
		{OrderID: "9", AmountMinor: 1},
		{OrderID: "1", AmountMinor: 1},
	})
	if !domain.IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	// Батч с дубликатом не должен был записаться даже частично.
	ids, _ := ledger.ValidIDs(ctx)
	if _, ok := ids["9"]; ok {
		t.Fatal("partial batch write detected")
	}
}

func TestOrderLedgerEmptyLastCreatedAt(t *testing.T) {
	last, err := NewOrderLedger().LastCreatedAt(context.Background())
	if err != nil {
		t.Fatalf("last created at: %v", err)
	}
	if !last.IsZero() {
		t.Fatalf("expected zero time, got %v", last)
	}
}

func TestIgnoredLedgerIsSeparate(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger()

	ignored := []domain.IgnoredOrder{
		{Order: domain.Order{OrderID: "5", AmountMinor: 100}, Reason: domain.IgnoreReasonRefunded},
	}
	if err := ledger.AppendIgnored(ctx, ignored); err != nil {
		t.Fatalf("append ignored: %v", err)
	}

	validIDs, _ := ledger.ValidIDs(ctx)
	if _, ok := validIDs["5"]; ok {
		t.Fatal("ignored id leaked into valid set")
	}

	ignoredIDs, _ := ledger.IgnoredIDs(ctx)
	if _, ok := ignoredIDs["5"]; !ok {
		t.Fatal("ignored id missing")
	}
}

func TestCustomerTableOverwrite(t *testing.T) {
	ctx := context.Background()
	table := NewCustomerTable()

	first := []domain.CustomerAggregate{
		{CustomerKey: "a", OrderCount: 1},
		{CustomerKey: "b", OrderCount: 2},
	}
	if err := table.Overwrite(ctx, first); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	second := []domain.CustomerAggregate{{CustomerKey: "c", OrderCount: 3}}
	if err := table.Overwrite(ctx, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	rows, err := table.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].CustomerKey != "c" {
		t.Fatalf("overwrite must replace contents entirely, got %+v", rows)
	}
}

func TestSyncRunRepositoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncRunRepository()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		run := domain.SyncRun{
			ID:        string(rune('a' + i)),
			Trigger:   domain.SyncTriggerCron,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Append(ctx, run); err != nil {
			t.Fatalf("append run: %v", err)
		}
	}

	runs, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}
