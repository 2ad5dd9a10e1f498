package service

import (
	"log/slog"
	"sync"

	"github.com/yourorg/libralend/internal/domain"
)

// ActivityFeed fans lending events out to websocket subscribers. Slow
// subscribers drop events rather than blocking an operation.
type ActivityFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.LendingEvent]struct{}
	logger      *slog.Logger
}

// NewActivityFeed creates an empty feed
func NewActivityFeed(logger *slog.Logger) *ActivityFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityFeed{
		subscribers: map[chan domain.LendingEvent]struct{}{},
		logger:      logger,
	}
}

// Subscribe registers a buffered event channel. The caller must
// Unsubscribe when done.
func (f *ActivityFeed) Subscribe() chan domain.LendingEvent {
	ch := make(chan domain.LendingEvent, 16)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel
func (f *ActivityFeed) Unsubscribe(ch chan domain.LendingEvent) {
	f.mu.Lock()
	if _, ok := f.subscribers[ch]; ok {
		delete(f.subscribers, ch)
		close(ch)
	}
	f.mu.Unlock()
}

// Publish delivers an event to every subscriber without blocking
func (f *ActivityFeed) Publish(event domain.LendingEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			f.logger.Debug("activity subscriber lagging, event dropped",
				slog.String("type", string(event.Type)),
			)
		}
	}
}
