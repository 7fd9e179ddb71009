package shopify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

// fallbackName подставляется, когда ни профиль, ни адрес доставки
// не дали имени клиента.
const fallbackName = "SEM NOME"

// orderPayload — сырой заказ Admin API. Только используемые поля.
type orderPayload struct {
	ID            json.Number    `json:"id"`
	CreatedAt     string         `json:"created_at"`
	Email         string         `json:"email"`
	TotalPrice    string         `json:"total_price"`
	TotalRefunded string         `json:"total_refunded"`
	OrderNumber   int64          `json:"order_number"`
	CancelledAt   *string        `json:"cancelled_at"`
	Customer      *personPayload `json:"customer"`
	Shipping      *personPayload `json:"shipping_address"`
}

type personPayload struct {
	ID        json.Number `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
}

// toDomain переводит сырой заказ в доменную запись.
// Нераспарсенная дата создания не фатальна: заказ уходит дальше с нулевым
// CreatedAt, агрегация исключит его из границ окна. Нераспарсенная сумма
// фатальна — без неё запись бессмысленна.
func (p orderPayload) toDomain() (domain.Order, error) {
	amount, err := domain.ParseAmountMinor(p.TotalPrice)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", p.ID.String(), err)
	}
	refunded, err := domain.ParseAmountMinor(p.TotalRefunded)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s refund: %w", p.ID.String(), err)
	}

	order := domain.Order{
		OrderID:       domain.NormalizeOrderID(p.ID.String()),
		CustomerName:  extractName(p.Customer, p.Shipping),
		Email:         p.Email,
		AmountMinor:   amount,
		OrderNumber:   p.OrderNumber,
		RefundedMinor: refunded,
	}

	if p.Customer != nil {
		order.CustomerID = domain.NormalizeOrderID(p.Customer.ID.String())
		if order.Email == "" {
			order.Email = p.Customer.Email
		}
	}

	if created, err := parseTime(p.CreatedAt); err == nil {
		order.CreatedAt = created
	}

	if p.CancelledAt != nil {
		if cancelled, err := parseTime(*p.CancelledAt); err == nil {
			order.CancelledAt = &cancelled
		} else {
			// Дата отмены не распарсилась, но сам факт отмены есть.
			zero := time.Time{}
			order.CancelledAt = &zero
		}
	}

	return order, nil
}

// extractName собирает имя клиента: профиль → адрес доставки → заглушка.
func extractName(customer, shipping *personPayload) string {
	first, last := "", ""
	if customer != nil {
		first = strings.TrimSpace(customer.FirstName)
		last = strings.TrimSpace(customer.LastName)
	}
	if first == "" && shipping != nil {
		first = strings.TrimSpace(shipping.FirstName)
		last = strings.TrimSpace(shipping.LastName)
	}

	full := strings.TrimSpace(first + " " + last)
	if full == "" {
		return fallbackName
	}
	return full
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return time.Parse(time.RFC3339, raw)
}

// ParseWebhookOrder разбирает тело webhook-доставки orders/paid в доменную
// запись. Формат совпадает с одиночным заказом Admin API без обёртки.
func ParseWebhookOrder(body []byte) (domain.Order, error) {
	var payload orderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Order{}, fmt.Errorf("decode webhook order: %w", err)
	}
	if payload.ID.String() == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}
	return payload.toDomain()
}
