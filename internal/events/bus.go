package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mantonx/mediacat/internal/logger"
)

// EventBus dispatches catalog events to subscribers.
type EventBus interface {
	Publish(event Event)
	Subscribe(filter EventFilter, handler EventHandler) *Subscription
	Unsubscribe(subscriptionID string)
	Start(ctx context.Context) error
	Stop()
}

type eventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventChannel  chan Event
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewEventBus creates an in-memory event bus with the given buffer size.
func NewEventBus(bufferSize int) EventBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &eventBus{
		subscriptions: make(map[string]*Subscription),
		eventChannel:  make(chan Event, bufferSize),
		stopCh:        make(chan struct{}),
	}
}

func (eb *eventBus) Start(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.running {
		return nil
	}
	eb.running = true
	eb.stopCh = make(chan struct{})

	eb.wg.Add(1)
	go eb.processEvents(ctx)
	return nil
}

func (eb *eventBus) Stop() {
	eb.mu.Lock()
	if !eb.running {
		eb.mu.Unlock()
		return
	}
	eb.running = false
	close(eb.stopCh)
	eb.mu.Unlock()

	eb.wg.Wait()
}

// Publish enqueues an event for dispatch. Events published against a full
// buffer are dropped with a warning rather than blocking the publisher.
func (eb *eventBus) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case eb.eventChannel <- event:
	default:
		logger.Warn("event bus buffer full, dropping event", "type", event.Type, "id", event.ID)
	}
}

func (eb *eventBus) Subscribe(filter EventFilter, handler EventHandler) *Subscription {
	sub := &Subscription{
		ID:      uuid.NewString(),
		Filter:  filter,
		Handler: handler,
		Created: time.Now().UTC(),
	}

	eb.mu.Lock()
	eb.subscriptions[sub.ID] = sub
	eb.mu.Unlock()
	return sub
}

func (eb *eventBus) Unsubscribe(subscriptionID string) {
	eb.mu.Lock()
	delete(eb.subscriptions, subscriptionID)
	eb.mu.Unlock()
}

func (eb *eventBus) processEvents(ctx context.Context) {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.eventChannel:
			eb.dispatch(event)
		case <-eb.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (eb *eventBus) dispatch(event Event) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.subscriptions))
	for _, sub := range eb.subscriptions {
		if sub.Filter.matches(event) {
			handlers = append(handlers, sub.Handler)
		}
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
