package crm

import (
	"math"
	"sort"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

// Множители запаса над типичным циклом покупки: 1.5 цикла без покупок —
// клиент "в риске", 3 цикла — "спящий".
const (
	riskCycleFactor    = 1.5
	dormantCycleFactor = 3.0
)

// EstimateCycle оценивает типичный интервал между покупками повторных
// клиентов и выводит из него пороги recency-состояний.
//
// В выборку входят клиенты с двумя и более заказами; цикл клиента —
// (last − first) / (count − 1) в днях. Циклы <= 0 отбрасываются (защита от
// битых дат, где last раньше first). При выборке меньше пяти клиентов
// статистика ненадёжна и возвращаются фиксированные пороги.
func EstimateCycle(aggs []domain.CustomerAggregate) domain.CycleStats {
	cycles := make([]float64, 0, len(aggs))

	for _, agg := range aggs {
		if agg.OrderCount < 2 || agg.FirstOrderAt.IsZero() || agg.LastOrderAt.IsZero() {
			continue
		}
		span := agg.LastOrderAt.Sub(agg.FirstOrderAt).Hours() / hoursPerDay
		cycle := span / float64(agg.OrderCount-1)
		if cycle <= 0 {
			continue
		}
		cycles = append(cycles, cycle)
	}

	if len(cycles) < domain.MinCycleSampleSize {
		return domain.FallbackCycleStats(len(cycles))
	}

	sort.Float64s(cycles)

	var sum float64
	for _, c := range cycles {
		sum += c
	}

	med := median(cycles)

	return domain.CycleStats{
		MedianCycleDays:      med,
		MeanCycleDays:        sum / float64(len(cycles)),
		RiskThresholdDays:    int(math.Round(med * riskCycleFactor)),
		DormantThresholdDays: int(math.Round(med * dormantCycleFactor)),
		SampleSize:           len(cycles),
	}
}

// median ожидает отсортированный срез.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
