package crm

import "github.com/vladislavdragonenkov/crmsync/internal/domain"

// Денежные пороги уровней в минимальных единицах. Бизнес-константы,
// подобранные под средний чек магазина.
const (
	PromisingSpendMinor = 500_00
	LoyalSpendMinor     = 2_000_00
	ChampionSpendMinor  = 5_000_00
)

// Пороги частоты покупок для уровней.
const (
	promisingOrderCount = 2
	loyalOrderCount     = 3
	championOrderCount  = 5
)

// ClassifyTier назначает value-сегмент клиента. Правила проверяются сверху
// вниз, первое совпавшее побеждает; давность покупки на уровень не влияет —
// оси tier и state независимы.
func ClassifyTier(agg domain.CustomerAggregate) domain.Tier {
	switch {
	case agg.OrderCount >= championOrderCount || agg.TotalMinor >= ChampionSpendMinor:
		return domain.TierChampion
	case agg.OrderCount >= loyalOrderCount || agg.TotalMinor >= LoyalSpendMinor:
		return domain.TierLoyal
	case agg.OrderCount >= promisingOrderCount || agg.TotalMinor >= PromisingSpendMinor:
		return domain.TierPromising
	default:
		return domain.TierNew
	}
}

// ClassifyState назначает lifecycle-состояние по давности последней покупки.
// Неизвестная давность (битые даты) не штрафуется и трактуется как Active.
func ClassifyState(agg domain.CustomerAggregate, stats domain.CycleStats) domain.State {
	if agg.DaysSinceLast == nil {
		return domain.StateActive
	}

	days := *agg.DaysSinceLast
	switch {
	case days >= stats.DormantThresholdDays:
		return domain.StateDormant
	case days >= stats.RiskThresholdDays:
		return domain.StateAtRisk
	default:
		return domain.StateActive
	}
}

// Classify проставляет tier и state всем агрегатам на месте.
func Classify(aggs []domain.CustomerAggregate, stats domain.CycleStats) {
	for i := range aggs {
		aggs[i].Tier = ClassifyTier(aggs[i])
		aggs[i].State = ClassifyState(aggs[i], stats)
	}
}
