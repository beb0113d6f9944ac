package ecs

import (
	"fmt"
	"sort"
)

// ComponentType names a kind of component ("health", "equipmentSlots").
// It is only a storage key; the data lives in the ComponentManager.
type ComponentType string

// Change reports what an add did to the (entity, type) slot.
type Change uint8

const (
	ChangeNone Change = iota
	ChangeInserted
	ChangeReplaced
)

func (c Change) String() string {
	switch c {
	case ChangeInserted:
		return "inserted"
	case ChangeReplaced:
		return "replaced"
	default:
		return "none"
	}
}

// componentStore holds every component of one type. Entities keep insertion
// order; index maps an entity to its position in the dense slices.
type componentStore struct {
	index    map[EntityID]int
	entities []EntityID
	values   []any
}

func newComponentStore() *componentStore {
	return &componentStore{
		index:    make(map[EntityID]int, 64),
		entities: make([]EntityID, 0, 64),
		values:   make([]any, 0, 64),
	}
}

func (s *componentStore) set(id EntityID, v any) Change {
	if i, ok := s.index[id]; ok {
		s.check(id, i)
		s.values[i] = v
		return ChangeReplaced
	}
	s.index[id] = len(s.entities)
	s.entities = append(s.entities, id)
	s.values = append(s.values, v)
	return ChangeInserted
}

func (s *componentStore) get(id EntityID) (any, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	s.check(id, i)
	return s.values[i], true
}

func (s *componentStore) remove(id EntityID) (any, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	s.check(id, i)
	v := s.values[i]
	delete(s.index, id)
	copy(s.entities[i:], s.entities[i+1:])
	copy(s.values[i:], s.values[i+1:])
	last := len(s.entities) - 1
	s.entities = s.entities[:last]
	s.values[last] = nil
	s.values = s.values[:last]
	for j := i; j < last; j++ {
		s.index[s.entities[j]] = j
	}
	return v, true
}

func (s *componentStore) len() int { return len(s.entities) }

// check panics when the index and the dense arrays disagree. That can only
// happen if the store itself is broken.
func (s *componentStore) check(id EntityID, i int) {
	if i < 0 || i >= len(s.entities) || s.entities[i] != id {
		panic(fmt.Sprintf("ecs: component index corrupt for entity %d at %d", id, i))
	}
}

// ComponentManager stores component data keyed by (entity, type). Storage is
// type-erased and bucketed per ComponentType so "every entity with T" never
// scans unrelated entities.
type ComponentManager struct {
	stores map[ComponentType]*componentStore
}

func NewComponentManager() *ComponentManager {
	return &ComponentManager{
		stores: make(map[ComponentType]*componentStore, 16),
	}
}

// Add stores data under (id, t), replacing any previous value.
func (m *ComponentManager) Add(id EntityID, t ComponentType, data any) Change {
	s, ok := m.stores[t]
	if !ok {
		s = newComponentStore()
		m.stores[t] = s
	}
	return s.set(id, data)
}

func (m *ComponentManager) Get(id EntityID, t ComponentType) (any, bool) {
	s, ok := m.stores[t]
	if !ok {
		return nil, false
	}
	return s.get(id)
}

func (m *ComponentManager) Has(id EntityID, t ComponentType) bool {
	s, ok := m.stores[t]
	if !ok {
		return false
	}
	_, ok = s.index[id]
	return ok
}

// Remove deletes (id, t) and reports whether anything was there. Empty
// buckets are dropped.
func (m *ComponentManager) Remove(id EntityID, t ComponentType) bool {
	_, ok := m.take(id, t)
	return ok
}

func (m *ComponentManager) take(id EntityID, t ComponentType) (any, bool) {
	s, ok := m.stores[t]
	if !ok {
		return nil, false
	}
	v, ok := s.remove(id)
	if ok && s.len() == 0 {
		delete(m.stores, t)
	}
	return v, ok
}

// RemoveAll clears id from every store and returns what was removed.
func (m *ComponentManager) RemoveAll(id EntityID) map[ComponentType]any {
	var removed map[ComponentType]any
	for t := range m.stores {
		if v, ok := m.take(id, t); ok {
			if removed == nil {
				removed = make(map[ComponentType]any, 4)
			}
			removed[t] = v
		}
	}
	return removed
}

// EntitiesWith returns every entity holding t, in insertion order. The slice
// is a copy and may be kept across structural changes.
func (m *ComponentManager) EntitiesWith(t ComponentType) []EntityID {
	s, ok := m.stores[t]
	if !ok || s.len() == 0 {
		return nil
	}
	out := make([]EntityID, len(s.entities))
	copy(out, s.entities)
	return out
}

// Count returns the number of entities holding t.
func (m *ComponentManager) Count(t ComponentType) int {
	s, ok := m.stores[t]
	if !ok {
		return 0
	}
	return s.len()
}

// TypesOf returns the sorted component types attached to id.
func (m *ComponentManager) TypesOf(id EntityID) []ComponentType {
	var out []ComponentType
	for t, s := range m.stores {
		if _, ok := s.index[id]; ok {
			out = append(out, t)
		}
	}
	sortTypes(out)
	return out
}

// Types returns the sorted component types that have at least one instance.
func (m *ComponentManager) Types() []ComponentType {
	out := make([]ComponentType, 0, len(m.stores))
	for t := range m.stores {
		out = append(out, t)
	}
	sortTypes(out)
	return out
}

// Reset drops every component.
func (m *ComponentManager) Reset() {
	m.stores = make(map[ComponentType]*componentStore, 16)
}

func sortTypes(ts []ComponentType) {
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
}

// Component is a typed handle over a ComponentType. Values are stored as *T so
// in-place mutation through a returned pointer is visible to later readers.
type Component[T any] struct {
	typ ComponentType
}

func NewComponent[T any](name string) Component[T] {
	return Component[T]{typ: ComponentType(name)}
}

func (c Component[T]) Type() ComponentType { return c.typ }

func (c Component[T]) Set(m *ComponentManager, id EntityID, v *T) Change {
	return m.Add(id, c.typ, v)
}

// Get returns the stored *T. A value of another Go type under the same
// ComponentType reads as absent.
func (c Component[T]) Get(m *ComponentManager, id EntityID) (*T, bool) {
	raw, ok := m.Get(id, c.typ)
	if !ok {
		return nil, false
	}
	v, ok := raw.(*T)
	return v, ok
}

func (c Component[T]) Has(m *ComponentManager, id EntityID) bool {
	return m.Has(id, c.typ)
}

func (c Component[T]) Remove(m *ComponentManager, id EntityID) bool {
	return m.Remove(id, c.typ)
}

// Each calls fn for every entity holding a *T of this type, in insertion order.
func (c Component[T]) Each(m *ComponentManager, fn func(EntityID, *T)) {
	for _, id := range m.EntitiesWith(c.typ) {
		if v, ok := c.Get(m, id); ok {
			fn(id, v)
		}
	}
}
