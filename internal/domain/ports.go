package domain

import (
	"context"
	"time"
)

// FetchOrder задаёт направление обхода истории заказов источника.
type FetchOrder string

const (
	FetchAsc  FetchOrder = "asc"
	FetchDesc FetchOrder = "desc"
)

// FetchRequest описывает параметры постраничной выборки оплаченных заказов.
type FetchRequest struct {
	// Since — нижняя граница created_at (включительно).
	Since time.Time
	// Order — направление сортировки по created_at.
	Order FetchOrder
	// BatchSize — максимальный размер батча, который вернёт пейджер.
	BatchSize int
}

// OrderPager выдаёт батчи заказов по одному.
type OrderPager interface {
	// Next возвращает следующий батч. done=true означает конец выборки.
	// *RateLimitedError — транзиентный сигнал: повторный вызов Next после
	// паузы повторит тот же запрос. Любая другая ошибка фатальна для прогона.
	Next(ctx context.Context) (batch []Order, done bool, err error)
}

// OrderSource описывает взаимодействие с платформой-источником заказов.
type OrderSource interface {
	// FetchPages начинает постраничную выборку оплаченных заказов.
	FetchPages(req FetchRequest) OrderPager
	// GetOrder возвращает один заказ по id или ErrOrderNotFound.
	GetOrder(ctx context.Context, orderID string) (Order, error)
}

// OrderLedger — долговременное append-only хранилище заказов,
// разделённое на валидную и ignored части, непересекающиеся по order_id.
type OrderLedger interface {
	// AppendValid дописывает валидные заказы; ErrDuplicateOrder при конфликте id.
	AppendValid(ctx context.Context, orders []Order) error
	// AppendIgnored дописывает исключённые заказы с мотивами.
	AppendIgnored(ctx context.Context, orders []IgnoredOrder) error
	// ValidIDs возвращает снимок id-колонки валидного леджера.
	ValidIDs(ctx context.Context) (map[string]struct{}, error)
	// IgnoredIDs возвращает снимок id-колонки ignored-леджера.
	IgnoredIDs(ctx context.Context) (map[string]struct{}, error)
	// ListValid возвращает весь валидный леджер для пересборки агрегатов.
	ListValid(ctx context.Context) ([]Order, error)
	// LastCreatedAt возвращает максимальный created_at валидного леджера
	// (нулевое время, если леджер пуст) — точка продолжения инкремента.
	LastCreatedAt(ctx context.Context) (time.Time, error)
}

// CustomerTable — производная клиентская таблица с overwrite-семантикой.
type CustomerTable interface {
	// Overwrite атомарно заменяет всё содержимое таблицы.
	Overwrite(ctx context.Context, customers []CustomerAggregate) error
	// List возвращает текущее содержимое таблицы в сохранённом порядке.
	List(ctx context.Context) ([]CustomerAggregate, error)
}

// SyncRunRepository хранит историю прогонов синхронизации.
type SyncRunRepository interface {
	Append(ctx context.Context, run SyncRun) error
	// List возвращает последние прогоны, не больше limit (limit<=0 — все).
	List(ctx context.Context, limit int) ([]SyncRun, error)
}
