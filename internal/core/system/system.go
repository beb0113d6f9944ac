package system

import (
	"time"

	"github.com/hearthsim/hearth/internal/core/ecs"
)

// System is the interface every ECS system implements. Implementations embed
// Base, which supplies the name, the required component set and the entity
// query bound at registration.
//
// RequiredComponents must be non-empty for a system to be handed entities:
// a system that requires nothing (timers, a clock, a spawner) gets an empty
// set rather than every live entity, and enumerates what it needs itself.
type System interface {
	Name() string
	RequiredComponents() []ecs.ComponentType
	Update(dt time.Duration)

	bind(components *ecs.ComponentManager)
}

// Initializer is implemented by systems that need a hook on registration.
type Initializer interface {
	OnInitialize()
}

// Shutdowner is implemented by systems that need a hook on removal or World
// teardown.
type Shutdowner interface {
	OnShutdown()
}

// Base carries the state shared by every system.
type Base struct {
	name       string
	required   []ecs.ComponentType
	components *ecs.ComponentManager
}

// NewBase fixes the system's name and required component set.
func NewBase(name string, required ...ecs.ComponentType) Base {
	req := make([]ecs.ComponentType, len(required))
	copy(req, required)
	return Base{name: name, required: req}
}

func (b *Base) Name() string { return b.name }

func (b *Base) RequiredComponents() []ecs.ComponentType {
	out := make([]ecs.ComponentType, len(b.required))
	copy(out, b.required)
	return out
}

// Entities returns the entities currently holding every required component.
// It is recomputed on each call. A system with no requirements, or one that
// is not registered, sees no entities.
func (b *Base) Entities() []ecs.EntityID {
	if b.components == nil {
		return nil
	}
	return b.components.EntitiesWithAll(b.required...)
}

func (b *Base) bind(components *ecs.ComponentManager) {
	b.components = components
}

// Func is a System backed by a closure.
type Func struct {
	Base
	update func(entities []ecs.EntityID, dt time.Duration)
}

// NewFunc builds a system that calls update with its current entity set.
func NewFunc(name string, required []ecs.ComponentType, update func(entities []ecs.EntityID, dt time.Duration)) *Func {
	return &Func{Base: NewBase(name, required...), update: update}
}

func (f *Func) Update(dt time.Duration) {
	if f.update != nil {
		f.update(f.Entities(), dt)
	}
}
