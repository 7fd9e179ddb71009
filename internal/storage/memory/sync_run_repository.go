package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

// syncRunRepositoryInMemory хранит историю прогонов в памяти.
type syncRunRepositoryInMemory struct {
	mu   sync.RWMutex
	runs []domain.SyncRun
}

// NewSyncRunRepository создаёт in-memory реализацию SyncRunRepository.
func NewSyncRunRepository() domain.SyncRunRepository {
	return &syncRunRepositoryInMemory{}
}

func (r *syncRunRepositoryInMemory) Append(_ context.Context, run domain.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, run)
	return nil
}

func (r *syncRunRepositoryInMemory) List(_ context.Context, limit int) ([]domain.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]domain.SyncRun, len(r.runs))
	copy(runs, r.runs)

	// Свежие прогоны первыми, как в PostgreSQL-реализации.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

var _ domain.SyncRunRepository = (*syncRunRepositoryInMemory)(nil)
