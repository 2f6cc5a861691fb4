// Package notify announces finished plans to interested listeners.
package notify

import (
	"sync"

	"feedernet/internal/model"
)

const EventPlanCompleted = "plan.completed"

type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// EventBroker fans events out per topic. Slow subscribers miss events
// rather than block the publisher.
type EventBroker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(topic string, evt Event)
}

// PlanTopic is the topic plans of network are announced on.
func PlanTopic(network string) string { return "plans:" + network }

func PlanCompleted(s model.Summary) Event {
	return Event{Type: EventPlanCompleted, Data: map[string]any{
		"planId":     s.ID,
		"network":    s.Network,
		"routes":     s.Routes,
		"totalFleet": s.TotalFleet,
		"createdAt":  s.CreatedAt,
	}}
}

// Broker is the in-process EventBroker.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Broker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

func (b *Broker) Publish(topic string, evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
}
