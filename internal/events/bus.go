// Package events is the in-process event bus connecting the file watcher, the debouncer and
// the build coordinator in watch mode. Nothing is persisted.
package events

import (
	"context"
	"reflect"
	"sync"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// Bus delivers typed events to subscribers. Publish blocks until every matching subscriber
// has taken the event or ctx is done, so slow consumers apply backpressure.
type Bus struct {
	mu     sync.RWMutex
	subs   map[reflect.Type]map[uint64]*subscription
	nextID uint64
	closed bool
}

type subscription struct {
	deliver func(ctx context.Context, evt any) error
	close   func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscription)}
}

// Subscribe returns a channel receiving every published event assignable to T, and a function
// that ends the subscription and closes the channel. Subscribing to an interface type receives
// all events implementing it.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	typ := reflect.TypeFor[T]()
	ch := make(chan T, buffer)
	done := make(chan struct{})
	var (
		mu       sync.RWMutex
		isClosed bool
		once     sync.Once
	)
	// done releases blocked senders before the channel is closed under the write lock.
	closeCh := func() {
		once.Do(func() {
			close(done)
			mu.Lock()
			isClosed = true
			close(ch)
			mu.Unlock()
		})
	}

	sub := &subscription{
		deliver: func(ctx context.Context, evt any) error {
			mu.RLock()
			defer mu.RUnlock()
			if isClosed {
				return nil
			}
			select {
			case ch <- evt.(T):
				return nil
			case <-done:
				return nil
			case <-ctx.Done():
				return foundationerrors.WrapError(ctx.Err(), foundationerrors.CategoryRuntime, "event publish canceled").
					WithContext("event_type", typ.String()).
					Build()
			}
		},
		close: closeCh,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		closeCh()
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	if b.subs[typ] == nil {
		b.subs[typ] = make(map[uint64]*subscription)
	}
	b.subs[typ][id] = sub

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if byID, ok := b.subs[typ]; ok {
			delete(byID, id)
			if len(byID) == 0 {
				delete(b.subs, typ)
			}
		}
		closeCh()
	}
}

// SubscriberCount returns the number of subscriptions for T.
func SubscriberCount[T any](b *Bus) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Publish delivers evt to every matching subscriber.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return foundationerrors.ValidationError("event cannot be nil").Build()
	}
	typ := reflect.TypeOf(evt)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return foundationerrors.RuntimeError("event bus is closed").Build()
	}
	var targets []*subscription
	for subType, byID := range b.subs {
		if subType != typ && (subType.Kind() != reflect.Interface || !typ.Implements(subType)) {
			continue
		}
		for _, s := range byID {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close ends every subscription. Publishing to a closed bus fails.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, byID := range b.subs {
		for _, s := range byID {
			s.close()
		}
	}
	b.subs = nil
}
