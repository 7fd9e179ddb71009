package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

type customerTable struct {
	db *sql.DB
}

// NewCustomerTable создаёт PostgreSQL-реализацию CustomerTable.
func NewCustomerTable(store *Store) domain.CustomerTable {
	return &customerTable{db: store.DB()}
}

// Overwrite заменяет всё содержимое клиентской таблицы одной транзакцией.
// Таблица — materialized view леджера: никакого частичного патчинга,
// читатели видят либо старую витрину целиком, либо новую.
func (t *customerTable) Overwrite(ctx context.Context, customers []domain.CustomerAggregate) error {
	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return fmt.Errorf("clear customers: %w", err)
	}

	for i, c := range customers {
		var days sql.NullInt32
		if c.DaysSinceLast != nil {
			days = sql.NullInt32{Int32: int32(*c.DaysSinceLast), Valid: true}
		}

		if _, err = tx.ExecContext(ctx, `
			INSERT INTO customers (
				position, customer_key, display_name, email, order_count,
				total_minor, first_order_at, last_order_at, days_since_last,
				state, tier
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			int64(i), c.CustomerKey, c.DisplayName, c.Email, c.OrderCount,
			c.TotalMinor, nullTime(c.FirstOrderAt), nullTime(c.LastOrderAt),
			days, string(c.State), string(c.Tier),
		); err != nil {
			return fmt.Errorf("insert customer %s: %w", c.CustomerKey, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit customers overwrite: %w", err)
	}

	return nil
}

// List возвращает витрину в сохранённом порядке.
func (t *customerTable) List(ctx context.Context) ([]domain.CustomerAggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	rows, err := t.db.QueryContext(ctx, `
		SELECT customer_key, display_name, email, order_count, total_minor,
		       first_order_at, last_order_at, days_since_last, state, tier
		FROM customers
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.CustomerAggregate, 0)
	for rows.Next() {
		var (
			c           domain.CustomerAggregate
			first, last sql.NullTime
			days        sql.NullInt32
			state, tier string
		)
		if err := rows.Scan(
			&c.CustomerKey, &c.DisplayName, &c.Email, &c.OrderCount,
			&c.TotalMinor, &first, &last, &days, &state, &tier,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if first.Valid {
			c.FirstOrderAt = first.Time
		}
		if last.Valid {
			c.LastOrderAt = last.Time
		}
		if days.Valid {
			d := int(days.Int32)
			c.DaysSinceLast = &d
		}
		c.State = domain.State(state)
		c.Tier = domain.Tier(tier)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, nil
}

var _ domain.CustomerTable = (*customerTable)(nil)
