package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка отрицательной суммы возврата.
	ErrRefundNegative = errors.New("refunded_minor must be non-negative")
	// Ошибка отсутствия ключа клиента (нет ни customer id, ни email).
	ErrCustomerKeyMissing = errors.New("customer key is missing")
	// Ошибка некорректного числа заказов в агрегате (< 1).
	ErrOrderCountInvalid = errors.New("order_count must be at least one")
	// Ошибка инвертированного окна покупок (first > last).
	ErrOrderWindowInverted = errors.New("first order is after last order")
	// Ошибка отрицательной давности последней покупки.
	ErrRecencyNegative = errors.New("days since last order must be non-negative")
	// ErrOrderNotFound возвращается, если заказ не найден в источнике.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder сигнализирует о попытке повторной записи id в леджер.
	ErrDuplicateOrder = errors.New("order already ledgered")
	// ErrInvalidAmount — денежная строка источника не распарсилась.
	ErrInvalidAmount = errors.New("invalid monetary amount")
)

// RateLimitedError — транзиентный сигнал источника "слишком много запросов".
// Это не ошибка прогона: оркестратор ждёт RetryAfter и повторяет тот же запрос.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("source rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited проверяет, является ли ошибка транзиентным rate-limit сигналом.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// RetryAfter достаёт паузу из rate-limit ошибки; для прочих ошибок ноль.
func RetryAfter(err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

// IsDuplicate проверяет, является ли ошибка конфликтом дубликата в леджере.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateOrder)
}
