package crm

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

const hoursPerDay = 24

// Aggregate сворачивает валидный леджер в одну строку на клиента.
// Чистая функция: читает срез, возвращает свежую проекцию, ничего не пишет.
//
// Правила:
//   - группировка по CustomerKey (id источника, иначе email-ключ);
//   - count и сумма считаются по всем строкам клиента;
//   - first/last — только по распарсенным датам; заказ с нулевой датой
//     не двигает границы, но клиента не выкидывает;
//   - имя и email берутся из хронологически последнего заказа
//     (при равных датах — из более позднего по порядку входа);
//   - DaysSinceLast — целых дней от now до последней покупки, не меньше нуля;
//     nil, если ни одна дата клиента не распарсилась.
func Aggregate(orders []domain.Order, now time.Time) []domain.CustomerAggregate {
	type group struct {
		agg      domain.CustomerAggregate
		lastSeen time.Time
	}

	groups := make(map[string]*group)
	keys := make([]string, 0)

	for _, order := range orders {
		key := order.CustomerKey()
		if key == "" {
			// Ни id, ни email — строку невозможно отнести к клиенту.
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &group{agg: domain.CustomerAggregate{CustomerKey: key}}
			groups[key] = g
			keys = append(keys, key)
		}

		g.agg.OrderCount++
		g.agg.TotalMinor += order.AmountMinor

		if !order.CreatedAt.IsZero() {
			if g.agg.FirstOrderAt.IsZero() || order.CreatedAt.Before(g.agg.FirstOrderAt) {
				g.agg.FirstOrderAt = order.CreatedAt
			}
			if order.CreatedAt.After(g.agg.LastOrderAt) {
				g.agg.LastOrderAt = order.CreatedAt
			}
		}

		// Контакты — из последнего по времени заказа; равенство дат
		// (включая нераспарсенные) разрешается порядком входа.
		if g.agg.DisplayName == "" || !order.CreatedAt.Before(g.lastSeen) {
			g.agg.DisplayName = order.CustomerName
			g.agg.Email = order.Email
			g.lastSeen = order.CreatedAt
		}
	}

	result := make([]domain.CustomerAggregate, 0, len(groups))
	for _, key := range keys {
		agg := groups[key].agg
		if !agg.LastOrderAt.IsZero() {
			days := daysSince(now, agg.LastOrderAt)
			agg.DaysSinceLast = &days
		}
		result = append(result, agg)
	}

	// Детеминированный порядок витрины: крупные клиенты сверху,
	// при равной сумме — более свежие.
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].TotalMinor != result[j].TotalMinor {
			return result[i].TotalMinor > result[j].TotalMinor
		}
		return result[i].LastOrderAt.After(result[j].LastOrderAt)
	})

	return result
}

// daysSince возвращает целые дни между now и last, не меньше нуля.
// Записи из будущего — артефакт рассинхрона часов, не реальные покупки.
func daysSince(now, last time.Time) int {
	days := int(now.Sub(last).Hours() / hoursPerDay)
	if days < 0 {
		return 0
	}
	return days
}
