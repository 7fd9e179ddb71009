package domain

import (
	"strings"
	"time"
	"unicode"
)

// IgnoreReason объясняет, почему заказ попал в ignored-леджер.
type IgnoreReason string

const (
	// IgnoreReasonCancelled — у заказа проставлен cancelled_at.
	IgnoreReasonCancelled IgnoreReason = "CANCELLED"
	// IgnoreReasonRefunded — возврат покрыл всю сумму заказа.
	IgnoreReasonRefunded IgnoreReason = "REFUNDED"
)

// EmailKeyPrefix отделяет синтетические ключи клиентов (по email) от
// настоящих идентификаторов источника.
const EmailKeyPrefix = "email:"

// Order — неизменяемый факт о заказе, полученный из источника.
// Заказ попадает ровно в один из двух леджеров и после записи не мутирует.
type Order struct {
	// OrderID — глобально уникальный идентификатор источника (нормализованный).
	OrderID string
	// CreatedAt — момент создания заказа в таймзоне источника.
	// Нулевое значение означает, что дата не распарсилась.
	CreatedAt time.Time
	// CustomerID — идентификатор клиента в источнике; может отсутствовать.
	CustomerID string
	// CustomerName — имя клиента на момент заказа.
	CustomerName string
	// Email клиента; используется как fallback-ключ группировки.
	Email string
	// AmountMinor — сумма заказа в минимальных денежных единицах.
	AmountMinor int64
	// OrderNumber — человекочитаемый номер заказа.
	OrderNumber int64
	// CancelledAt фиксирует отмену заказа в источнике (nil — не отменён).
	CancelledAt *time.Time
	// RefundedMinor — возвращённая сумма в минимальных единицах.
	RefundedMinor int64
}

// IgnoredOrder — заказ, исключённый из расчётов, с мотивом исключения.
type IgnoredOrder struct {
	Order
	Reason IgnoreReason
}

// IsValid сообщает, участвует ли заказ в клиентской аналитике.
// Заказ валиден, если он не отменён и возврат не покрыл всю сумму.
func (o Order) IsValid() bool {
	return o.CancelledAt == nil && o.RefundedMinor < o.AmountMinor
}

// Ignore возвращает заказ с мотивом исключения.
// Мотив CANCELLED имеет приоритет над REFUNDED.
func (o Order) Ignore() IgnoredOrder {
	reason := IgnoreReasonRefunded
	if o.CancelledAt != nil {
		reason = IgnoreReasonCancelled
	}
	return IgnoredOrder{Order: o, Reason: reason}
}

// CustomerKey возвращает стабильный ключ группировки клиента:
// идентификатор источника, иначе синтетический ключ по email.
func (o Order) CustomerKey() string {
	if id := strings.TrimSpace(o.CustomerID); id != "" {
		return id
	}
	email := strings.ToLower(strings.TrimSpace(o.Email))
	if email == "" {
		return ""
	}
	return EmailKeyPrefix + email
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if NormalizeOrderID(o.OrderID) == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if o.RefundedMinor < 0 {
		errs = append(errs, ErrRefundNegative)
	}
	if o.CustomerKey() == "" {
		errs = append(errs, ErrCustomerKeyMissing)
	}

	return errs
}

// NormalizeOrderID канонизирует идентификатор заказа для сравнения и записи:
// убирает хвостовой ".0" (артефакт числового представления), запятые и любые
// пробельные символы. Числовой и строковый варианты одного id после
// нормализации совпадают.
func NormalizeOrderID(raw string) string {
	id := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSuffix(id, ".0")
}
