package query

import (
	"github.com/hearthsim/hearth/internal/core/ecs"
	"github.com/hearthsim/hearth/internal/core/world"
)

// Select returns the live entities matching f, in slot order.
func Select(w *world.World, f Filter) []ecs.EntityID {
	var out []ecs.EntityID
	cm := w.Components()
	w.EachEntity(func(id ecs.EntityID) {
		if f.Matches(cm.TypesOf(id)) {
			out = append(out, id)
		}
	})
	return out
}

// Run compiles src and selects the matching entities.
func Run(w *world.World, src string) ([]ecs.EntityID, error) {
	f, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return Select(w, f), nil
}
