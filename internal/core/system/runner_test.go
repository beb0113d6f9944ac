package system

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"gotest.tools/v3/assert"

	"github.com/hearthsim/hearth/internal/core/ecs"
)

type hookedSystem struct {
	Base
	log *[]string
}

func newHooked(name string, log *[]string, required ...ecs.ComponentType) *hookedSystem {
	return &hookedSystem{Base: NewBase(name, required...), log: log}
}

func (s *hookedSystem) Update(time.Duration) { *s.log = append(*s.log, "update:"+s.Name()) }
func (s *hookedSystem) OnInitialize()        { *s.log = append(*s.log, "init:"+s.Name()) }
func (s *hookedSystem) OnShutdown()          { *s.log = append(*s.log, "shutdown:"+s.Name()) }

func TestRunnerOrderAndHooks(t *testing.T) {
	var log []string
	r := NewRunner(ecs.NewComponentManager(), nil)

	assert.NilError(t, r.Register(newHooked("b", &log)))
	assert.NilError(t, r.Register(newHooked("a", &log)))
	assert.NilError(t, r.Register(newHooked("c", &log)))
	assert.DeepEqual(t, r.Names(), []string{"b", "a", "c"})

	r.Tick(time.Second)
	assert.DeepEqual(t, log, []string{
		"init:b", "init:a", "init:c",
		"update:b", "update:a", "update:c",
	})

	log = nil
	assert.Assert(t, r.Remove("a"))
	assert.Assert(t, !r.Remove("a"))
	assert.Assert(t, r.Get("a") == nil)
	r.Tick(time.Second)
	r.Shutdown()
	assert.DeepEqual(t, log, []string{
		"shutdown:a",
		"update:b", "update:c",
		"shutdown:c", "shutdown:b",
	})
	assert.Equal(t, r.Len(), 0)
}

func TestRunnerDuplicateName(t *testing.T) {
	var log []string
	r := NewRunner(ecs.NewComponentManager(), nil)
	first := newHooked("needs", &log)
	assert.NilError(t, r.Register(first))

	err := r.Register(newHooked("needs", &log))
	assert.Assert(t, eris.Is(err, ErrDuplicateSystem))
	assert.Equal(t, r.Len(), 1)
	assert.Assert(t, r.Get("needs") == System(first))
	assert.DeepEqual(t, log, []string{"init:needs"})

	assert.Assert(t, r.Register(nil) != nil)
}

func TestBaseEntitiesTracksStructuralChanges(t *testing.T) {
	cm := ecs.NewComponentManager()
	pool := ecs.NewEntityPool()
	r := NewRunner(cm, nil)

	var seen [][]ecs.EntityID
	s := NewFunc("mover", []ecs.ComponentType{"position", "velocity"}, func(ids []ecs.EntityID, _ time.Duration) {
		seen = append(seen, ids)
	})
	assert.Equal(t, len(s.Entities()), 0, "unregistered system sees nothing")
	assert.NilError(t, r.Register(s))

	e := pool.Create()
	cm.Add(e, "position", 1)
	assert.Equal(t, len(s.Entities()), 0)

	cm.Add(e, "velocity", 2)
	assert.DeepEqual(t, s.Entities(), []ecs.EntityID{e})

	r.Tick(time.Millisecond)
	cm.Remove(e, "position")
	r.Tick(time.Millisecond)
	assert.Equal(t, len(seen), 2)
	assert.DeepEqual(t, seen[0], []ecs.EntityID{e})
	assert.Equal(t, len(seen[1]), 0)
}

func TestRequiredComponentsAreFixed(t *testing.T) {
	req := []ecs.ComponentType{"a", "b"}
	b := NewBase("fixed", req...)
	req[0] = "mutated"

	got := b.RequiredComponents()
	assert.DeepEqual(t, got, []ecs.ComponentType{"a", "b"})
	got[1] = "mutated"
	assert.DeepEqual(t, b.RequiredComponents(), []ecs.ComponentType{"a", "b"})
}

func TestSystemRemovedMidTickIsSkipped(t *testing.T) {
	var log []string
	r := NewRunner(ecs.NewComponentManager(), nil)
	victim := newHooked("victim", &log)
	killer := NewFunc("killer", nil, func([]ecs.EntityID, time.Duration) {
		r.Remove("victim")
	})
	assert.NilError(t, r.Register(killer))
	assert.NilError(t, r.Register(victim))

	r.Tick(time.Millisecond)
	assert.DeepEqual(t, log, []string{"init:victim", "shutdown:victim"})
}

func TestSystemWithoutRequirementsGetsNoEntities(t *testing.T) {
	cm := ecs.NewComponentManager()
	r := NewRunner(cm, nil)
	ticks := 0
	s := NewFunc("clock", nil, func(ids []ecs.EntityID, _ time.Duration) {
		assert.Equal(t, len(ids), 0)
		ticks++
	})
	assert.NilError(t, r.Register(s))
	cm.Add(ecs.NewEntityPool().Create(), "position", 1)

	r.Tick(time.Millisecond)
	assert.Equal(t, ticks, 1, "still updated every tick")
}
