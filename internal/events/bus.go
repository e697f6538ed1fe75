package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handler processes one event. A returned error (or a panic) is logged and
// counted; it never stops delivery to the remaining handlers.
type Handler func(Event) error

// Publisher is the side of the bus that features which mutate shared state see.
type Publisher interface {
	Publish(Event)
}

// Subscriber is the side of the bus that features holding cached state see.
type Subscriber interface {
	Subscribe(kind Kind, handler Handler) *Subscription
}

// Bus is a synchronous, process-wide publish/subscribe channel.
//
// Publish runs every matching handler on the calling goroutine, in
// registration order, before it returns. Subscriber lists are copy-on-write:
// Publish iterates a snapshot taken when it starts, so handlers registered
// during a publish are not called for that event and a Release during a
// publish cannot corrupt the iteration.
type Bus struct {
	mu     sync.Mutex
	subs   map[Kind][]*Subscription
	nextID uint64
	logger *zap.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	failures  atomic.Uint64
}

// NewBus creates an empty bus. A nil logger discards handler failure logs.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[Kind][]*Subscription),
		logger: logger,
	}
}

// Subscription is the capability returned by Subscribe. Its owner must call
// Release when the owning screen goes away.
type Subscription struct {
	id       uint64
	kind     Kind
	handler  Handler
	bus      *Bus
	released atomic.Bool
}

// Kind returns the event kind this subscription listens to.
func (s *Subscription) Kind() Kind { return s.kind }

// Released reports whether Release has been called.
func (s *Subscription) Released() bool { return s.released.Load() }

// Release unregisters the handler. It is idempotent and may be called from
// any goroutine, including from inside the handler itself. Publish checks
// the flag right before each handler call, so a handler not yet reached
// when Release returns is skipped. A call that passed that check on
// another goroutine can still begin or finish after Release returns.
func (s *Subscription) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	s.bus.remove(s)
}

// Subscribe registers handler for events of kind.
func (b *Bus) Subscribe(kind Kind, handler Handler) *Subscription {
	if handler == nil {
		panic("events: nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, kind: kind, handler: handler, bus: b}

	current := b.subs[kind]
	next := make([]*Subscription, len(current), len(current)+1)
	copy(next, current)
	b.subs[kind] = append(next, sub)

	b.logger.Debug("subscribed", zap.String("kind", string(kind)), zap.Uint64("id", sub.id))
	return sub
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[sub.kind]
	next := make([]*Subscription, 0, len(current))
	for _, s := range current {
		if s != sub {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(b.subs, sub.kind)
	} else {
		b.subs[sub.kind] = next
	}

	b.logger.Debug("released", zap.String("kind", string(sub.kind)), zap.Uint64("id", sub.id))
}

// Publish delivers e to every live subscriber of e.Kind(). No payload
// validation is done; producers own the correctness of what they publish.
func (b *Bus) Publish(e Event) {
	if e == nil {
		return
	}

	b.mu.Lock()
	snapshot := b.subs[e.Kind()]
	b.mu.Unlock()

	b.published.Add(1)
	for _, sub := range snapshot {
		b.deliver(sub, e)
	}
}

func (b *Bus) deliver(sub *Subscription, e Event) {
	if sub.released.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.failures.Add(1)
			b.logger.Error("event handler panicked",
				zap.String("event", Describe(e)),
				zap.Uint64("subscription", sub.id),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := sub.handler(e); err != nil {
		b.failures.Add(1)
		b.logger.Warn("event handler failed",
			zap.String("event", Describe(e)),
			zap.Uint64("subscription", sub.id),
			zap.Error(err))
		return
	}
	b.delivered.Add(1)
}

// On registers a handler typed to one concrete event, so the compiler checks
// the payload type instead of a runtime key lookup.
func On[E Event](s Subscriber, fn func(E) error) *Subscription {
	var zero E
	return s.Subscribe(zero.Kind(), func(e Event) error {
		typed, ok := e.(E)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e, zero.Kind())
		}
		return fn(typed)
	})
}

// Stats returns current event bus statistics.
func (b *Bus) Stats() BusStats {
	b.mu.Lock()
	byKind := make(map[Kind]int, len(b.subs))
	total := 0
	for k, list := range b.subs {
		byKind[k] = len(list)
		total += len(list)
	}
	b.mu.Unlock()

	return BusStats{
		SubscriberCount: total,
		ByKind:          byKind,
		TotalPublished:  b.published.Load(),
		TotalDelivered:  b.delivered.Load(),
		HandlerFailures: b.failures.Load(),
	}
}

// BusStats holds event bus statistics.
type BusStats struct {
	SubscriberCount int
	ByKind          map[Kind]int
	TotalPublished  uint64
	TotalDelivered  uint64
	HandlerFailures uint64
}

var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)
