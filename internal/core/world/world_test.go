package world

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gotest.tools/v3/assert"

	"github.com/hearthsim/hearth/internal/core/ecs"
	"github.com/hearthsim/hearth/internal/core/event"
	"github.com/hearthsim/hearth/internal/core/system"
)

type Health struct {
	Current, Max int
}

const (
	healthType ecs.ComponentType = "health"
	hungerType ecs.ComponentType = "hunger"
)

var healthComponent = ecs.NewComponent[Health]("health")

func TestHealthScenario(t *testing.T) {
	w := New()

	e1 := w.CreateEntity()
	assert.Equal(t, w.AddComponent(e1, healthType, Health{100, 100}), ecs.ChangeInserted)
	got, ok := w.GetComponent(e1, healthType)
	assert.Assert(t, ok)
	assert.Equal(t, got, any(Health{100, 100}))

	assert.Equal(t, w.AddComponent(e1, healthType, Health{50, 100}), ecs.ChangeReplaced)
	got, _ = w.GetComponent(e1, healthType)
	assert.Equal(t, got, any(Health{50, 100}))
	assert.DeepEqual(t, w.EntitiesWith(healthType), []ecs.EntityID{e1})

	assert.Assert(t, w.DestroyEntity(e1))
	got, ok = w.GetComponent(e1, healthType)
	assert.Assert(t, !ok)
	assert.Assert(t, got == nil)
	assert.Equal(t, len(w.EntitiesWith(healthType)), 0)
}

func TestDeadEntityOperationsAreMisses(t *testing.T) {
	w := New()
	e := w.CreateEntity()
	w.AddComponent(e, healthType, Health{1, 1})
	w.DestroyEntity(e)

	assert.Assert(t, !w.DestroyEntity(e), "second destroy is a no-op")
	assert.Equal(t, w.AddComponent(e, healthType, Health{2, 2}), ecs.ChangeNone)
	assert.Assert(t, !w.HasComponent(e, healthType))
	assert.Assert(t, !w.RemoveComponent(e, healthType))
	assert.Equal(t, len(w.ComponentsOf(e)), 0)
	_, ok := Get(w, healthComponent, e)
	assert.Assert(t, !ok)

	// A recycled slot must not expose the previous holder's data.
	fresh := w.CreateEntity()
	assert.Equal(t, fresh.Index(), e.Index())
	assert.Assert(t, !w.HasComponent(fresh, healthType))
	assert.Assert(t, !w.Alive(e))
}

func TestDestroyPurgesEveryType(t *testing.T) {
	w := New()
	e := w.CreateEntity()
	other := w.CreateEntity()
	types := []ecs.ComponentType{"health", "hunger", "equipmentSlots", "currency"}
	for i, typ := range types {
		w.AddComponent(e, typ, i)
		w.AddComponent(other, typ, i)
	}

	var destroyed event.EntityLifecycle
	w.Events().Subscribe(event.EntityDestroyed, func(ev event.Event) error {
		destroyed = ev.Payload.(event.EntityLifecycle)
		return nil
	})

	w.DestroyEntity(e)
	for i, typ := range types {
		_, ok := w.GetComponent(e, typ)
		assert.Assert(t, !ok)
		assert.DeepEqual(t, w.EntitiesWith(typ), []ecs.EntityID{other})
		assert.Equal(t, destroyed.Components[typ], any(i))
	}
	assert.Equal(t, destroyed.Entity, e)
	assert.Equal(t, w.EntityCount(), 1)
}

func TestStructuralEvents(t *testing.T) {
	w := New()
	var got []string
	for _, typ := range []string{
		event.EntityCreated, event.EntityDestroyed,
		event.ComponentAdded, event.ComponentChanged, event.ComponentRemoved,
	} {
		typ := typ
		w.Events().Subscribe(typ, func(ev event.Event) error {
			got = append(got, ev.Type)
			return nil
		})
	}

	e := w.CreateEntity()
	w.AddComponent(e, hungerType, 10)
	w.AddComponent(e, hungerType, 9)
	w.RemoveComponent(e, hungerType)
	w.RemoveComponent(e, hungerType)
	w.DestroyEntity(e)

	assert.DeepEqual(t, got, []string{
		event.EntityCreated,
		event.ComponentAdded,
		event.ComponentChanged,
		event.ComponentRemoved,
		event.EntityDestroyed,
	})

	quiet := New(WithStructuralEvents(false))
	calls := 0
	quiet.Events().Subscribe(event.EntityCreated, func(event.Event) error {
		calls++
		return nil
	})
	quiet.CreateEntity()
	assert.Equal(t, calls, 0)
}

func TestComponentChangePayload(t *testing.T) {
	w := New()
	e := w.CreateEntity()
	var changes []event.ComponentChange
	event.On(w.Events(), event.ComponentChanged, func(c event.ComponentChange) error {
		changes = append(changes, c)
		return nil
	})

	Set(w, healthComponent, e, &Health{10, 10})
	hp := &Health{4, 10}
	assert.Equal(t, Set(w, healthComponent, e, hp), ecs.ChangeReplaced)

	assert.Equal(t, len(changes), 1)
	assert.Equal(t, changes[0].Entity, e)
	assert.Equal(t, changes[0].Component, healthType)
	assert.Equal(t, changes[0].Value, any(hp))
}

func TestSystemsRunInRegistrationOrder(t *testing.T) {
	w := New()
	var order []string
	for _, name := range []string{"equipment", "attributes", "ui"} {
		name := name
		w.MustAddSystem(system.NewFunc(name, nil, func([]ecs.EntityID, time.Duration) {
			order = append(order, name)
		}))
	}

	w.Update(16 * time.Millisecond)
	w.Update(16 * time.Millisecond)
	assert.DeepEqual(t, order, []string{
		"equipment", "attributes", "ui",
		"equipment", "attributes", "ui",
	})
	assert.Equal(t, w.Frame(), uint64(2))
	assert.DeepEqual(t, w.SystemNames(), []string{"equipment", "attributes", "ui"})
}

func TestDuplicateSystemName(t *testing.T) {
	w := New()
	assert.NilError(t, w.AddSystem(system.NewFunc("needs", nil, nil)))
	err := w.AddSystem(system.NewFunc("needs", nil, nil))
	assert.Assert(t, eris.Is(err, system.ErrDuplicateSystem))

	defer func() {
		assert.Assert(t, recover() != nil)
	}()
	w.MustAddSystem(system.NewFunc("needs", nil, nil))
}

func TestGetAndRemoveSystem(t *testing.T) {
	w := New()
	s := system.NewFunc("quests", []ecs.ComponentType{"quest"}, nil)
	w.MustAddSystem(s)

	assert.Assert(t, w.GetSystem("quests") == system.System(s))
	assert.Assert(t, w.GetSystem("missing") == nil)
	assert.Assert(t, w.RemoveSystem("quests"))
	assert.Assert(t, w.GetSystem("quests") == nil)
	assert.Assert(t, !w.RemoveSystem("quests"))
}

func TestSameFrameVisibility(t *testing.T) {
	w := New()
	e := w.CreateEntity()
	w.AddComponent(e, "equipment", "sword")

	var seenByAttributes []ecs.EntityID
	w.MustAddSystem(system.NewFunc("equipment", []ecs.ComponentType{"equipment"}, func(ids []ecs.EntityID, _ time.Duration) {
		for _, id := range ids {
			w.AddComponent(id, "attributes", map[string]any{"str": 5})
		}
	}))
	w.MustAddSystem(system.NewFunc("attributes", []ecs.ComponentType{"equipment", "attributes"}, func(ids []ecs.EntityID, _ time.Duration) {
		seenByAttributes = append(seenByAttributes, ids...)
	}))

	w.Update(time.Millisecond)
	assert.DeepEqual(t, seenByAttributes, []ecs.EntityID{e})
}

func TestSystemEntitiesFollowComponents(t *testing.T) {
	w := New()
	s := system.NewFunc("vitals", []ecs.ComponentType{healthType, hungerType}, nil)
	w.MustAddSystem(s)

	a, b := w.CreateEntity(), w.CreateEntity()
	w.AddComponent(a, healthType, 1)
	w.AddComponent(a, hungerType, 1)
	w.AddComponent(b, healthType, 1)
	assert.DeepEqual(t, s.Entities(), []ecs.EntityID{a})

	w.AddComponent(b, hungerType, 1)
	assert.DeepEqual(t, s.Entities(), []ecs.EntityID{a, b})

	w.RemoveComponent(a, healthType)
	assert.DeepEqual(t, s.Entities(), []ecs.EntityID{b})

	w.DestroyEntity(b)
	assert.Equal(t, len(s.Entities()), 0)
}

func TestUpdateDrainsQueueAndDeferredDestroy(t *testing.T) {
	w := New()
	e := w.CreateEntity()
	w.AddComponent(e, healthType, 1)

	var order []string
	w.Events().Subscribe("despawn", func(event.Event) error {
		order = append(order, "despawn")
		assert.Assert(t, w.Alive(e), "queued events run before deferred destruction")
		return nil
	})
	w.Events().Subscribe(event.EntityDestroyed, func(event.Event) error {
		order = append(order, "destroyed")
		return nil
	})
	w.MustAddSystem(system.NewFunc("reaper", []ecs.ComponentType{healthType}, func(ids []ecs.EntityID, _ time.Duration) {
		for _, id := range ids {
			w.MarkForDestruction(id)
			w.MarkForDestruction(id)
			w.Events().Queue(event.Event{Type: "despawn"})
		}
		assert.Assert(t, w.Alive(e), "still alive inside the frame")
	}))

	w.Update(time.Millisecond)
	assert.Assert(t, !w.Alive(e))
	assert.DeepEqual(t, order, []string{"despawn", "destroyed"})

	manual := New(WithQueueDrain(false))
	manual.Events().Queue(event.Event{Type: "x"})
	manual.Update(time.Millisecond)
	assert.Equal(t, manual.Events().QueueSize(), 1)
}

func TestTimersRevalidateLiveness(t *testing.T) {
	w := New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w.Timers().SetClock(func() time.Time { return base })

	e := w.CreateEntity()
	w.AddComponent(e, hungerType, 10)

	fed := false
	w.After(5*time.Second, "feed", func(w *World) {
		if !w.HasComponent(e, hungerType) {
			return
		}
		fed = true
	})
	w.DestroyEntity(e)

	assert.Equal(t, w.RunTimers(base.Add(10*time.Second)), 1)
	assert.Assert(t, !fed)
}

func TestShutdown(t *testing.T) {
	w := New(WithID(uuid.MustParse("7f1e7c1c-3d59-4b47-9f55-8a2d3c1f0b11")))
	assert.Equal(t, w.ID().String(), "7f1e7c1c-3d59-4b47-9f55-8a2d3c1f0b11")

	var log []string
	w.MustAddSystem(system.NewFunc("a", nil, func([]ecs.EntityID, time.Duration) { log = append(log, "update") }))
	e := w.CreateEntity()
	w.AddComponent(e, healthType, 1)
	w.Events().Subscribe("x", func(event.Event) error { return nil })
	w.After(0, "never", func(*World) { log = append(log, "timer") })

	w.Shutdown()
	w.Shutdown()
	assert.Assert(t, w.Closed())
	assert.Assert(t, !w.Alive(e))
	assert.Equal(t, w.EntityCount(), 0)
	assert.Equal(t, len(w.SystemNames()), 0)
	assert.Equal(t, w.Events().ListenerCount("x"), 0)

	w.Update(time.Millisecond)
	assert.Equal(t, w.RunTimers(time.Now().Add(time.Hour)), 0)
	assert.Equal(t, len(log), 0)
}

func TestWorldsAreIsolated(t *testing.T) {
	a, b := New(), New()
	assert.Assert(t, a.ID() != b.ID())

	ea := a.CreateEntity()
	a.AddComponent(ea, healthType, 1)
	calls := 0
	a.Events().Subscribe("ping", func(event.Event) error {
		calls++
		return nil
	})

	b.Events().Emit(event.Event{Type: "ping"})
	assert.Equal(t, calls, 0)
	assert.Equal(t, len(b.EntitiesWith(healthType)), 0)
	assert.Assert(t, b.GetSystem("anything") == nil)
}
