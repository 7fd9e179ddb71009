package domain

import "time"

// Tier — сегмент клиента по частоте и сумме покупок (monetary/frequency).
type Tier string

const (
	TierNew       Tier = "New"
	TierPromising Tier = "Promising"
	TierLoyal     Tier = "Loyal"
	TierChampion  Tier = "Champion"
)

// State — жизненный цикл клиента по давности последней покупки (recency).
type State string

const (
	StateActive  State = "Active"
	StateAtRisk  State = "AtRisk"
	StateDormant State = "Dormant"
)

// CustomerAggregate — производная строка клиентской таблицы.
// Таблица пересобирается целиком на каждом прогоне синхронизации
// (materialized view), инкрементально не патчится.
type CustomerAggregate struct {
	// CustomerKey — ключ группировки (см. Order.CustomerKey).
	CustomerKey string
	// DisplayName — имя из хронологически последнего заказа клиента.
	DisplayName string
	// Email из хронологически последнего заказа клиента.
	Email string
	// OrderCount — число валидных заказов клиента (>= 1).
	OrderCount int
	// TotalMinor — сумма валидных заказов в минимальных единицах.
	TotalMinor int64
	// FirstOrderAt/LastOrderAt — границы истории покупок по распарсенным датам.
	FirstOrderAt time.Time
	LastOrderAt  time.Time
	// DaysSinceLast — целых дней с последней покупки, >= 0.
	// nil означает, что ни одна дата клиента не распарсилась:
	// классификация трактует это как "нельзя оценить", а не "купил только что".
	DaysSinceLast *int
	// Tier и State назначаются классификатором; оси независимы.
	Tier  Tier
	State State
}

// ValidateInvariants проверяет согласованность агрегата.
func (c *CustomerAggregate) ValidateInvariants() []error {
	var errs []error

	if c.CustomerKey == "" {
		errs = append(errs, ErrCustomerKeyMissing)
	}
	if c.OrderCount < 1 {
		errs = append(errs, ErrOrderCountInvalid)
	}
	if c.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if !c.FirstOrderAt.IsZero() && c.FirstOrderAt.After(c.LastOrderAt) {
		errs = append(errs, ErrOrderWindowInverted)
	}
	if c.DaysSinceLast != nil && *c.DaysSinceLast < 0 {
		errs = append(errs, ErrRecencyNegative)
	}

	return errs
}
