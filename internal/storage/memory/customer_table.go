package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

// customerTableInMemory — in-memory витрина клиентов с overwrite-семантикой.
type customerTableInMemory struct {
	mu   sync.RWMutex
	rows []domain.CustomerAggregate
}

// NewCustomerTable создаёт пустую in-memory клиентскую таблицу.
func NewCustomerTable() domain.CustomerTable {
	return &customerTableInMemory{}
}

func (t *customerTableInMemory) Overwrite(_ context.Context, customers []domain.CustomerAggregate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Копия, чтобы мутации среза у вызывающего не трогали витрину.
	t.rows = make([]domain.CustomerAggregate, len(customers))
	copy(t.rows, customers)
	return nil
}

func (t *customerTableInMemory) List(context.Context) ([]domain.CustomerAggregate, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]domain.CustomerAggregate, len(t.rows))
	copy(rows, t.rows)
	return rows, nil
}

var _ domain.CustomerTable = (*customerTableInMemory)(nil)
