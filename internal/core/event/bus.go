package event

import (
	"reflect"
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Event is a tagged record. Producers and consumers agree on the Payload shape
// for each Type; the bus only requires Type to be non-empty.
type Event struct {
	Type    string
	Payload any
}

// Handler reacts to one event. A returned error is logged by the bus.
type Handler func(Event) error

// Subscription identifies one Subscribe call so it can be undone later.
type Subscription uint64

type listener struct {
	sub Subscription
	fn  Handler
}

// Bus delivers events synchronously (Emit) or through a FIFO queue drained
// by ProcessQueue. It is owned by one World and used from its logic thread
// only; there is no locking.
type Bus struct {
	listeners  map[string][]listener
	queue      []Event
	processing bool
	nextSub    Subscription
	log        *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		listeners: make(map[string][]listener),
		queue:     make([]Event, 0, 64),
		log:       log,
	}
}

// Subscribe registers fn for events of type typ. Handlers run in
// subscription order.
func (b *Bus) Subscribe(typ string, fn Handler) Subscription {
	b.nextSub++
	b.listeners[typ] = append(b.listeners[typ], listener{sub: b.nextSub, fn: fn})
	return b.nextSub
}

// Unsubscribe removes sub from typ. Removing the last handler frees the
// type's bucket.
func (b *Bus) Unsubscribe(typ string, sub Subscription) bool {
	ls, ok := b.listeners[typ]
	if !ok {
		return false
	}
	for i, l := range ls {
		if l.sub != sub {
			continue
		}
		if len(ls) == 1 {
			delete(b.listeners, typ)
			return true
		}
		// Fresh slice: a running Emit may still hold the old one.
		next := make([]listener, 0, len(ls)-1)
		next = append(next, ls[:i]...)
		next = append(next, ls[i+1:]...)
		b.listeners[typ] = next
		return true
	}
	return false
}

// Emit delivers ev to every handler subscribed to ev.Type when Emit was
// called. Subscriptions changed by a handler only affect later emits. A
// failing handler is logged and does not stop its siblings.
func (b *Bus) Emit(ev Event) {
	if ev.Type == "" {
		b.log.Warn("dropping event without type", zap.Any("payload", ev.Payload))
		return
	}
	ls := b.listeners[ev.Type]
	if len(ls) == 0 {
		return
	}
	snapshot := make([]listener, len(ls))
	copy(snapshot, ls)
	for _, l := range snapshot {
		b.call(l, ev)
	}
}

func (b *Bus) call(l listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", ev.Type),
				zap.Uint64("subscription", uint64(l.sub)),
				zap.String("handler", handlerName(l.fn)),
				zap.Any("panic", r),
			)
		}
	}()
	if err := l.fn(ev); err != nil {
		b.log.Error("event handler failed",
			zap.String("event", ev.Type),
			zap.Uint64("subscription", uint64(l.sub)),
			zap.String("handler", handlerName(l.fn)),
			zap.Error(err),
		)
	}
}

// Queue appends ev for the next ProcessQueue.
func (b *Bus) Queue(ev Event) {
	b.queue = append(b.queue, ev)
}

// ProcessQueue emits queued events front to back until the queue is empty,
// including events queued by handlers along the way. Called from inside an
// active drain it does nothing. Returns the number of events emitted.
func (b *Bus) ProcessQueue() int {
	if b.processing {
		return 0
	}
	b.processing = true
	defer func() { b.processing = false }()

	n := 0
	for len(b.queue) > 0 {
		ev := b.queue[0]
		b.queue[0] = Event{}
		b.queue = b.queue[1:]
		b.Emit(ev)
		n++
	}
	b.queue = b.queue[:0]
	return n
}

func (b *Bus) QueueSize() int { return len(b.queue) }

func (b *Bus) ClearQueue() {
	for i := range b.queue {
		b.queue[i] = Event{}
	}
	b.queue = b.queue[:0]
}

func (b *Bus) ListenerCount(typ string) int {
	return len(b.listeners[typ])
}

// EventTypes returns the sorted types that currently have handlers.
func (b *Bus) EventTypes() []string {
	out := make([]string, 0, len(b.listeners))
	for t := range b.listeners {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Reset drops every subscription and queued event.
func (b *Bus) Reset() {
	b.listeners = make(map[string][]listener)
	b.ClearQueue()
}

// On subscribes a handler that only sees payloads of type T. Events of typ
// carrying another payload type are logged and skipped.
func On[T any](b *Bus, typ string, fn func(T) error) Subscription {
	return b.Subscribe(typ, func(ev Event) error {
		p, ok := PayloadAs[T](ev)
		if !ok {
			return eris.Errorf("payload %T is not %s", ev.Payload, reflect.TypeOf((*T)(nil)).Elem())
		}
		return fn(p)
	})
}

// PayloadAs returns ev.Payload as T.
func PayloadAs[T any](ev Event) (T, bool) {
	p, ok := ev.Payload.(T)
	return p, ok
}

func handlerName(fn Handler) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "unknown"
	}
	return f.Name()
}
