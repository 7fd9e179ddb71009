package domain

import "time"

// SyncState — множества уже записанных id обоих леджеров, протаскиваемые
// через цикл синхронизации. Значение живёт один прогон и не разделяется
// между прогонами (никаких глобальных множеств).
type SyncState struct {
	ValidIDs   map[string]struct{}
	IgnoredIDs map[string]struct{}
}

// NewSyncState создаёт состояние из снимков id-колонок обоих леджеров.
func NewSyncState(validIDs, ignoredIDs map[string]struct{}) SyncState {
	if validIDs == nil {
		validIDs = make(map[string]struct{})
	}
	if ignoredIDs == nil {
		ignoredIDs = make(map[string]struct{})
	}
	return SyncState{ValidIDs: validIDs, IgnoredIDs: ignoredIDs}
}

// SeenValid сообщает, записан ли нормализованный id в валидный леджер.
func (s SyncState) SeenValid(id string) bool {
	_, ok := s.ValidIDs[id]
	return ok
}

// SeenIgnored сообщает, записан ли нормализованный id в ignored-леджер.
func (s SyncState) SeenIgnored(id string) bool {
	_, ok := s.IgnoredIDs[id]
	return ok
}

// Seen сообщает, записан ли id хоть в один из леджеров.
func (s SyncState) Seen(id string) bool {
	return s.SeenValid(id) || s.SeenIgnored(id)
}

// MarkValid помечает id как записанный в валидный леджер, чтобы последующие
// батчи того же прогона видели обновлённое состояние.
func (s SyncState) MarkValid(id string) {
	s.ValidIDs[id] = struct{}{}
}

// MarkIgnored помечает id как записанный в ignored-леджер.
func (s SyncState) MarkIgnored(id string) {
	s.IgnoredIDs[id] = struct{}{}
}

// SyncResult — структурный итог прогона синхронизации.
// Ноль новых заказов — нормальный успешный результат, не ошибка.
type SyncResult struct {
	// Processed — сколько заказов пришло из источника за прогон.
	Processed int
	// AddedValid/AddedIgnored — сколько новых строк дописано в леджеры.
	AddedValid   int
	AddedIgnored int
	// CustomersRebuilt — размер пересобранной клиентской таблицы
	// (0, если пересборка не понадобилась).
	CustomersRebuilt int
}

// SyncRun — запись истории прогонов для аудита.
type SyncRun struct {
	ID         string
	Trigger    string
	Since      time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Result     SyncResult
	Error      string
}

// Триггеры прогонов синхронизации.
const (
	SyncTriggerCron    = "cron"
	SyncTriggerWebhook = "webhook"
	SyncTriggerManual  = "manual"
)
