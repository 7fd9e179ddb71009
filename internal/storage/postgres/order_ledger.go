package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

const (
	opTimeout = 5 * time.Second
	// Запись большого батча может не уложиться в обычный таймаут.
	appendTimeout = 30 * time.Second
)

type orderLedger struct {
	db *sql.DB
}

// NewOrderLedger создаёт PostgreSQL-реализацию OrderLedger.
func NewOrderLedger(store *Store) domain.OrderLedger {
	return &orderLedger{db: store.DB()}
}

// AppendValid дописывает батч валидных заказов одной транзакцией.
// Конфликт по order_id мапится в ErrDuplicateOrder: леджер append-only,
// повторная запись того же id — ошибка дедупликации выше по стеку.
func (l *orderLedger) AppendValid(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, order := range orders {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO valid_orders (
				order_id, created_at, customer_id, customer_name, email,
				amount_minor, order_number, refunded_minor
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			order.OrderID, nullTime(order.CreatedAt), order.CustomerID,
			order.CustomerName, order.Email, order.AmountMinor,
			order.OrderNumber, order.RefundedMinor,
		); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.OrderID)
				return err
			}
			return fmt.Errorf("insert valid order %s: %w", order.OrderID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit valid batch: %w", err)
	}

	return nil
}

// AppendIgnored дописывает батч исключённых заказов с мотивами.
func (l *orderLedger) AppendIgnored(ctx context.Context, orders []domain.IgnoredOrder) error {
	if len(orders) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, order := range orders {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO ignored_orders (
				order_id, created_at, customer_id, customer_name, email,
				amount_minor, order_number, cancelled_at, refunded_minor, reason
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			order.OrderID, nullTime(order.CreatedAt), order.CustomerID,
			order.CustomerName, order.Email, order.AmountMinor,
			order.OrderNumber, order.CancelledAt, order.RefundedMinor,
			string(order.Reason),
		); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.OrderID)
				return err
			}
			return fmt.Errorf("insert ignored order %s: %w", order.OrderID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ignored batch: %w", err)
	}

	return nil
}

// ValidIDs возвращает снимок id-колонки валидного леджера.
func (l *orderLedger) ValidIDs(ctx context.Context) (map[string]struct{}, error) {
	return l.idSet(ctx, "valid_orders")
}

// IgnoredIDs возвращает снимок id-колонки ignored-леджера.
func (l *orderLedger) IgnoredIDs(ctx context.Context) (map[string]struct{}, error) {
	return l.idSet(ctx, "ignored_orders")
}

func (l *orderLedger) idSet(ctx context.Context, table string) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, `SELECT order_id FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("read %s ids: %w", table, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids[domain.NormalizeOrderID(id)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", table, err)
	}

	return ids, nil
}

// ListValid возвращает весь валидный леджер в порядке created_at.
func (l *orderLedger) ListValid(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, `
		SELECT order_id, created_at, customer_id, customer_name, email,
		       amount_minor, order_number, refunded_minor
		FROM valid_orders
		ORDER BY created_at ASC NULLS FIRST, order_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list valid orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order   domain.Order
			created sql.NullTime
		)
		if err := rows.Scan(
			&order.OrderID, &created, &order.CustomerID, &order.CustomerName,
			&order.Email, &order.AmountMinor, &order.OrderNumber, &order.RefundedMinor,
		); err != nil {
			return nil, fmt.Errorf("scan valid order: %w", err)
		}
		if created.Valid {
			order.CreatedAt = created.Time
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valid orders: %w", err)
	}

	return orders, nil
}

// LastCreatedAt возвращает максимальный created_at валидного леджера
// или нулевое время для пустого леджера.
func (l *orderLedger) LastCreatedAt(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var last sql.NullTime
	if err := l.db.QueryRowContext(ctx, `
		SELECT MAX(created_at) FROM valid_orders
	`).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("query last created_at: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}

	return last.Time, nil
}

// nullTime маппит нулевое время в NULL: нераспарсенная дата источника
// не должна притворяться эпохой Unix.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderLedger = (*orderLedger)(nil)
