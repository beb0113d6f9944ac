package world

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthsim/hearth/internal/core/ecs"
	"github.com/hearthsim/hearth/internal/core/event"
	"github.com/hearthsim/hearth/internal/core/system"
	"github.com/hearthsim/hearth/internal/core/timer"
)

// World is the top-level ECS container. It owns the entity pool, the
// component manager, the event bus, the system runner and the timer
// scheduler. Nothing is shared between Worlds.
//
// Component writes are visible immediately: a system running later in the
// same frame sees what an earlier one wrote.
type World struct {
	id           uuid.UUID
	pool         *ecs.EntityPool
	components   *ecs.ComponentManager
	bus          *event.Bus
	runner       *system.Runner
	timers       *timer.Scheduler
	destroyQueue []ecs.EntityID
	frame        uint64
	closed       bool

	structuralEvents bool
	drainQueue       bool
	log              *zap.Logger
}

type Option func(*World)

// WithLogger sets the logger. Every entry carries the world id.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) { w.log = log }
}

// WithStructuralEvents toggles entity/component change notifications.
func WithStructuralEvents(on bool) Option {
	return func(w *World) { w.structuralEvents = on }
}

// WithQueueDrain makes Update drain the event queue after the systems ran.
func WithQueueDrain(on bool) Option {
	return func(w *World) { w.drainQueue = on }
}

// WithID fixes the world id instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(w *World) { w.id = id }
}

func New(opts ...Option) *World {
	w := &World{
		structuralEvents: true,
		drainQueue:       true,
		destroyQueue:     make([]ecs.EntityID, 0, 64),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.id == uuid.Nil {
		w.id = uuid.New()
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	w.log = w.log.With(zap.String("world", w.id.String()))

	w.pool = ecs.NewEntityPool()
	w.components = ecs.NewComponentManager()
	w.bus = event.NewBus(w.log.Named("events"))
	w.runner = system.NewRunner(w.components, w.log.Named("systems"))
	w.timers = timer.NewScheduler(w.log.Named("timers"))
	return w
}

func (w *World) ID() uuid.UUID                     { return w.id }
func (w *World) Frame() uint64                     { return w.frame }
func (w *World) Events() *event.Bus                { return w.bus }
func (w *World) Components() *ecs.ComponentManager { return w.components }
func (w *World) Timers() *timer.Scheduler          { return w.timers }
func (w *World) Logger() *zap.Logger               { return w.log }

// ── Entities ────────────────────────────────────────────────────────

func (w *World) CreateEntity() ecs.EntityID {
	id := w.pool.Create()
	w.notify(event.EntityCreated, event.EntityLifecycle{Entity: id})
	return id
}

func (w *World) Alive(id ecs.EntityID) bool {
	return w.pool.Alive(id)
}

func (w *World) EntityCount() int {
	return w.pool.Len()
}

// EachEntity calls fn for every live entity in slot order.
func (w *World) EachEntity(fn func(ecs.EntityID)) {
	w.pool.Each(fn)
}

// DestroyEntity purges the entity's components, kills the id and emits
// EntityDestroyed with the purged data. Dead or unknown ids are a no-op.
func (w *World) DestroyEntity(id ecs.EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	removed := w.components.RemoveAll(id)
	w.pool.Destroy(id)
	w.notify(event.EntityDestroyed, event.EntityLifecycle{Entity: id, Components: removed})
	return true
}

// MarkForDestruction queues an entity for end-of-frame cleanup.
func (w *World) MarkForDestruction(id ecs.EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities. Called at the end of
// Update; entities queued by destroy handlers are flushed in the same call.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for len(w.destroyQueue) > 0 {
		id := w.destroyQueue[0]
		w.destroyQueue = w.destroyQueue[1:]
		if w.DestroyEntity(id) {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// ── Components ──────────────────────────────────────────────────────

// AddComponent stores data on a live entity and reports whether it was an
// insert or a replace. A dead entity yields ChangeNone.
func (w *World) AddComponent(id ecs.EntityID, t ecs.ComponentType, data any) ecs.Change {
	if !w.pool.Alive(id) {
		return ecs.ChangeNone
	}
	change := w.components.Add(id, t, data)
	switch change {
	case ecs.ChangeInserted:
		w.notify(event.ComponentAdded, event.ComponentChange{Entity: id, Component: t, Value: data})
	case ecs.ChangeReplaced:
		w.notify(event.ComponentChanged, event.ComponentChange{Entity: id, Component: t, Value: data})
	}
	return change
}

func (w *World) GetComponent(id ecs.EntityID, t ecs.ComponentType) (any, bool) {
	if !w.pool.Alive(id) {
		return nil, false
	}
	return w.components.Get(id, t)
}

func (w *World) HasComponent(id ecs.EntityID, t ecs.ComponentType) bool {
	return w.pool.Alive(id) && w.components.Has(id, t)
}

func (w *World) RemoveComponent(id ecs.EntityID, t ecs.ComponentType) bool {
	if !w.pool.Alive(id) {
		return false
	}
	v, ok := w.components.Get(id, t)
	if !ok {
		return false
	}
	w.components.Remove(id, t)
	w.notify(event.ComponentRemoved, event.ComponentChange{Entity: id, Component: t, Value: v})
	return true
}

func (w *World) EntitiesWith(t ecs.ComponentType) []ecs.EntityID {
	return w.components.EntitiesWith(t)
}

func (w *World) EntitiesWithAll(ts ...ecs.ComponentType) []ecs.EntityID {
	return w.components.EntitiesWithAll(ts...)
}

// ComponentsOf returns the sorted component types attached to id.
func (w *World) ComponentsOf(id ecs.EntityID) []ecs.ComponentType {
	if !w.pool.Alive(id) {
		return nil
	}
	return w.components.TypesOf(id)
}

// Set stores a typed component through the World so change notifications fire.
func Set[T any](w *World, c ecs.Component[T], id ecs.EntityID, v *T) ecs.Change {
	return w.AddComponent(id, c.Type(), v)
}

// Get reads a typed component; dead entities read as absent.
func Get[T any](w *World, c ecs.Component[T], id ecs.EntityID) (*T, bool) {
	if !w.pool.Alive(id) {
		return nil, false
	}
	return c.Get(w.components, id)
}

// ── Systems ─────────────────────────────────────────────────────────

// AddSystem registers s after every existing system and fires OnInitialize.
// A duplicate name returns system.ErrDuplicateSystem.
func (w *World) AddSystem(s system.System) error {
	return w.runner.Register(s)
}

// MustAddSystem is AddSystem for setup code where a bad configuration should
// abort.
func (w *World) MustAddSystem(s system.System) {
	if err := w.AddSystem(s); err != nil {
		panic(err)
	}
}

func (w *World) GetSystem(name string) system.System {
	return w.runner.Get(name)
}

func (w *World) RemoveSystem(name string) bool {
	return w.runner.Remove(name)
}

func (w *World) SystemNames() []string {
	return w.runner.Names()
}

// ── Frame loop ──────────────────────────────────────────────────────

// Update advances one frame: every system runs once in registration order,
// then the event queue is drained (if enabled) and deferred destruction is
// flushed.
func (w *World) Update(dt time.Duration) {
	if w.closed {
		return
	}
	w.frame++
	w.runner.Tick(dt)
	if w.drainQueue {
		w.bus.ProcessQueue()
	}
	w.FlushDestroyQueue()
}

// After schedules fn outside the frame loop. By the time it fires the
// entities it cares about may be gone; check Alive/HasComponent first.
func (w *World) After(delay time.Duration, name string, fn func(*World)) {
	w.timers.After(delay, name, func() {
		if w.closed {
			return
		}
		fn(w)
	})
}

// RunTimers fires due timer callbacks. The host calls it between frames.
func (w *World) RunTimers(now time.Time) int {
	if w.closed {
		return 0
	}
	return w.timers.RunDue(now)
}

// Shutdown tears the World down: systems get OnShutdown in reverse order,
// then subscribers, queued events, timers and entities are dropped. The World
// is inert afterwards.
func (w *World) Shutdown() {
	if w.closed {
		return
	}
	w.runner.Shutdown()
	w.bus.Reset()
	w.timers.Reset()
	w.components.Reset()
	w.pool.Reset()
	w.destroyQueue = w.destroyQueue[:0]
	w.closed = true
	w.log.Info("world shut down", zap.Uint64("frames", w.frame))
}

func (w *World) Closed() bool { return w.closed }

func (w *World) notify(typ string, payload any) {
	if !w.structuralEvents {
		return
	}
	w.bus.Emit(event.Event{Type: typ, Payload: payload})
}
