package query

import "github.com/hearthsim/hearth/internal/core/ecs"

// Filter decides whether an entity's component set matches.
type Filter interface {
	Matches(types []ecs.ComponentType) bool
}

type all struct{}

// All matches every entity.
func All() Filter { return all{} }

func (all) Matches([]ecs.ComponentType) bool { return true }

type contains struct {
	types []ecs.ComponentType
}

// Contains matches entities holding every listed type, and possibly others.
func Contains(types ...ecs.ComponentType) Filter {
	return contains{types: types}
}

func (f contains) Matches(types []ecs.ComponentType) bool {
	for _, t := range f.types {
		if !hasType(types, t) {
			return false
		}
	}
	return true
}

type exact struct {
	types []ecs.ComponentType
}

// Exact matches entities whose component set is exactly the listed types.
func Exact(types ...ecs.ComponentType) Filter {
	return exact{types: types}
}

func (f exact) Matches(types []ecs.ComponentType) bool {
	for _, t := range f.types {
		if !hasType(types, t) {
			return false
		}
	}
	for _, t := range types {
		if !hasType(f.types, t) {
			return false
		}
	}
	return true
}

type not struct {
	inner Filter
}

func Not(f Filter) Filter { return not{inner: f} }

func (f not) Matches(types []ecs.ComponentType) bool {
	return !f.inner.Matches(types)
}

type and struct {
	filters []Filter
}

func And(filters ...Filter) Filter { return and{filters: filters} }

func (f and) Matches(types []ecs.ComponentType) bool {
	for _, inner := range f.filters {
		if !inner.Matches(types) {
			return false
		}
	}
	return true
}

type or struct {
	filters []Filter
}

func Or(filters ...Filter) Filter { return or{filters: filters} }

func (f or) Matches(types []ecs.ComponentType) bool {
	for _, inner := range f.filters {
		if inner.Matches(types) {
			return true
		}
	}
	return false
}

func hasType(types []ecs.ComponentType, t ecs.ComponentType) bool {
	for _, cur := range types {
		if cur == t {
			return true
		}
	}
	return false
}
