package crm

import "github.com/vladislavdragonenkov/crmsync/internal/domain"

// Summary — сводные метрики по клиентской базе для отчётов и логов.
type Summary struct {
	TotalCustomers int
	RevenueMinor   int64
	// AvgTicketMinor — средняя сумма на клиента в минимальных единицах.
	AvgTicketMinor int64

	ByTier  map[domain.Tier]int
	ByState map[domain.State]int
}

// Summarize считает сводку по уже классифицированным агрегатам.
func Summarize(aggs []domain.CustomerAggregate) Summary {
	s := Summary{
		ByTier:  make(map[domain.Tier]int),
		ByState: make(map[domain.State]int),
	}

	for _, agg := range aggs {
		s.TotalCustomers++
		s.RevenueMinor += agg.TotalMinor
		s.ByTier[agg.Tier]++
		s.ByState[agg.State]++
	}

	if s.TotalCustomers > 0 {
		s.AvgTicketMinor = s.RevenueMinor / int64(s.TotalCustomers)
	}

	return s
}
