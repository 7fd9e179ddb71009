package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

// orderLedgerInMemory — in-memory реализация OrderLedger для локальной
// разработки и тестов. Повторяет дисциплину PostgreSQL-варианта:
// append-only, уникальность order_id внутри каждого леджера.
type orderLedgerInMemory struct {
	mu      sync.RWMutex
	valid   map[string]domain.Order
	ignored map[string]domain.IgnoredOrder
}

// NewOrderLedger возвращает пустой in-memory леджер.
func NewOrderLedger() domain.OrderLedger {
	return &orderLedgerInMemory{
		valid:   make(map[string]domain.Order),
		ignored: make(map[string]domain.IgnoredOrder),
	}
}

func (l *orderLedgerInMemory) AppendValid(_ context.Context, orders []domain.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Сначала проверяем весь батч, потом пишем: либо целиком, либо никак,
	// как транзакция в PostgreSQL-реализации.
	for _, order := range orders {
		if _, exists := l.valid[order.OrderID]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.OrderID)
		}
	}
	for _, order := range orders {
		l.valid[order.OrderID] = order
	}
	return nil
}

func (l *orderLedgerInMemory) AppendIgnored(_ context.Context, orders []domain.IgnoredOrder) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, order := range orders {
		if _, exists := l.ignored[order.OrderID]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.OrderID)
		}
	}
	for _, order := range orders {
		l.ignored[order.OrderID] = order
	}
	return nil
}

func (l *orderLedgerInMemory) ValidIDs(context.Context) (map[string]struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make(map[string]struct{}, len(l.valid))
	for id := range l.valid {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (l *orderLedgerInMemory) IgnoredIDs(context.Context) (map[string]struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make(map[string]struct{}, len(l.ignored))
	for id := range l.ignored {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (l *orderLedgerInMemory) ListValid(context.Context) ([]domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	orders := make([]domain.Order, 0, len(l.valid))
	for _, order := range l.valid {
		orders = append(orders, order)
	}

	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].OrderID < orders[j].OrderID
	})

	return orders, nil
}

func (l *orderLedgerInMemory) LastCreatedAt(context.Context) (time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var last time.Time
	for _, order := range l.valid {
		if order.CreatedAt.After(last) {
			last = order.CreatedAt
		}
	}
	return last, nil
}

var _ domain.OrderLedger = (*orderLedgerInMemory)(nil)
