package event

import "github.com/hearthsim/hearth/internal/core/ecs"

// Structural change notifications emitted by the World.
const (
	EntityCreated    = "entity:created"
	EntityDestroyed  = "entity:destroyed"
	ComponentAdded   = "component:added"
	ComponentChanged = "component:changed"
	ComponentRemoved = "component:removed"
)

// EntityLifecycle is the payload of EntityCreated and EntityDestroyed. On
// destroy, Components holds everything that was purged from the entity.
type EntityLifecycle struct {
	Entity     ecs.EntityID
	Components map[ecs.ComponentType]any
}

// ComponentChange is the payload of ComponentAdded, ComponentChanged and
// ComponentRemoved. Value is the new value, or the removed one.
type ComponentChange struct {
	Entity    ecs.EntityID
	Component ecs.ComponentType
	Value     any
}
