package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События прогона синхронизации
	EventTypeSyncStarted   EventType = "sync.started"
	EventTypeSyncCompleted EventType = "sync.completed"
	EventTypeSyncFailed    EventType = "sync.failed"

	// События заказов
	EventTypeOrderIngested EventType = "order.ingested"
	EventTypeOrderIgnored  EventType = "order.ignored"

	// События витрины клиентов
	EventTypeCustomersRebuilt EventType = "customers.rebuilt"
)

// Topics для Kafka
const (
	TopicSyncEvents  = "crm.sync.events"
	TopicOrderEvents = "crm.order.events"
)

// SyncEvent представляет событие прогона синхронизации. RunID пуст у
// событий витрины: пересборка не привязана к конкретному прогону.
type SyncEvent struct {
	EventType EventType              `json:"event_type"`
	RunID     string                 `json:"run_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// OrderEvent представляет событие по конкретному заказу
type OrderEvent struct {
	EventType   EventType              `json:"event_type"`
	OrderID     string                 `json:"order_id"`
	CustomerKey string                 `json:"customer_key"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewSyncEvent создает новое событие прогона
func NewSyncEvent(eventType EventType, runID string, metadata map[string]interface{}) *SyncEvent {
	return &SyncEvent{
		EventType: eventType,
		RunID:     runID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, customerKey string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:   eventType,
		OrderID:     orderID,
		CustomerKey: customerKey,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}
