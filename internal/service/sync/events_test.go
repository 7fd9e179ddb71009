package sync

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	"github.com/vladislavdragonenkov/crmsync/internal/messaging/kafka"
)

// recordingPublisher накапливает опубликованные события в памяти.
type recordingPublisher struct {
	topics []string
	keys   []string
	events []interface{}
}

func (p *recordingPublisher) PublishEvent(topic string, key string, event interface{}) error {
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) syncEvents() []*kafka.SyncEvent {
	out := make([]*kafka.SyncEvent, 0, len(p.events))
	for _, e := range p.events {
		if se, ok := e.(*kafka.SyncEvent); ok {
			out = append(out, se)
		}
	}
	return out
}

func TestSyncPublishesRunEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	env := newTestEnv([]scriptedStep{
		{batch: []domain.Order{orderAt("1", 100_00, now)}, done: true},
	})
	publisher := &recordingPublisher{}
	env.orch.events = publisher

	if _, err := env.orch.Sync(ctx, domain.SyncTriggerCron, now.Add(-time.Hour)); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var types []kafka.EventType
	for _, e := range publisher.syncEvents() {
		types = append(types, e.EventType)
	}
	want := []kafka.EventType{
		kafka.EventTypeSyncStarted,
		kafka.EventTypeCustomersRebuilt,
		kafka.EventTypeSyncCompleted,
	}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, types)
		}
	}
}

func TestRebuildPublishesCustomersRebuilt(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	env := newTestEnv(nil)
	if err := env.ledger.AppendValid(ctx, []domain.Order{
		orderAt("1", 100_00, now),
		orderAt("2", 50_00, now),
	}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	publisher := &recordingPublisher{}
	env.orch.events = publisher

	rebuilt, err := env.orch.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if rebuilt != 2 {
		t.Fatalf("expected 2 customers, got %d", rebuilt)
	}

	events := publisher.syncEvents()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	event := events[0]
	if event.EventType != kafka.EventTypeCustomersRebuilt {
		t.Fatalf("expected customers.rebuilt, got %s", event.EventType)
	}
	if event.RunID != "" {
		t.Fatalf("rebuild event must not carry a run id, got %q", event.RunID)
	}
	if got := event.Metadata["customers"]; got != 2 {
		t.Fatalf("expected customers=2 in metadata, got %v", got)
	}
	// Ключ события без прогона — тип события, партиция стабильна.
	if publisher.keys[0] != string(kafka.EventTypeCustomersRebuilt) {
		t.Fatalf("unexpected partition key %q", publisher.keys[0])
	}
	if publisher.topics[0] != kafka.TopicSyncEvents {
		t.Fatalf("unexpected topic %q", publisher.topics[0])
	}
}
