package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/subscription-billing/internal/publisher"
	"github.com/flexprice/subscription-billing/internal/types"
)

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

// InMemoryEventPublisher records published subscription events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.SubscriptionEvent
	err    error
}

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event *types.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes every following Publish return err, nil restores normal behavior
func (p *InMemoryEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetEvents returns all published events
func (p *InMemoryEventPublisher) GetEvents() []*types.SubscriptionEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	events := make([]*types.SubscriptionEvent, len(p.events))
	copy(events, p.events)
	return events
}

// EventsNamed returns the published events with the given name
func (p *InMemoryEventPublisher) EventsNamed(name types.SubscriptionEventName) []*types.SubscriptionEvent {
	var named []*types.SubscriptionEvent
	for _, e := range p.GetEvents() {
		if e.EventName == name {
			named = append(named, e)
		}
	}
	return named
}

func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.err = nil
}
