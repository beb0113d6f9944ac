package ecs

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEntityPoolCreateUnique(t *testing.T) {
	p := NewEntityPool()
	seen := make(map[EntityID]bool)
	for i := 0; i < 100; i++ {
		id := p.Create()
		assert.Assert(t, !id.IsZero())
		assert.Assert(t, !seen[id], "duplicate id %d", id)
		assert.Assert(t, p.Alive(id))
		seen[id] = true
	}
	assert.Equal(t, p.Len(), 100)
}

func TestEntityPoolRecycleBumpsGeneration(t *testing.T) {
	p := NewEntityPool()
	old := p.Create()
	assert.Assert(t, p.Destroy(old))

	reused := p.Create()
	assert.Equal(t, reused.Index(), old.Index())
	assert.Assert(t, reused.Generation() != old.Generation())
	assert.Assert(t, p.Alive(reused))
	assert.Assert(t, !p.Alive(old), "stale reference must read as dead")
}

func TestEntityPoolDestroyIdempotent(t *testing.T) {
	cases := []struct {
		name string
		id   func(p *EntityPool) EntityID
	}{
		{"already_dead", func(p *EntityPool) EntityID {
			id := p.Create()
			p.Destroy(id)
			return id
		}},
		{"unknown_index", func(*EntityPool) EntityID { return NewEntityID(999, 1) }},
		{"zero", func(*EntityPool) EntityID { return 0 }},
		{"unissued_generation", func(p *EntityPool) EntityID {
			id := p.Create()
			p.Destroy(id)
			// The slot's next generation has not been handed out yet.
			return NewEntityID(id.Index(), id.Generation()+1)
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewEntityPool()
			keep := p.Create()
			id := c.id(p)
			before := p.Len()
			assert.Assert(t, !p.Destroy(id))
			assert.Equal(t, p.Len(), before)
			assert.Assert(t, p.Alive(keep))
		})
	}
}

func TestEntityPoolEachAndReset(t *testing.T) {
	p := NewEntityPool()
	a, b, c := p.Create(), p.Create(), p.Create()
	p.Destroy(b)

	var got []EntityID
	p.Each(func(id EntityID) { got = append(got, id) })
	assert.DeepEqual(t, got, []EntityID{a, c})

	p.Reset()
	assert.Equal(t, p.Len(), 0)
	assert.Assert(t, !p.Alive(a))
	assert.Assert(t, !p.Alive(c))

	fresh := p.Create()
	assert.Equal(t, fresh.Index(), a.Index())
	assert.Assert(t, fresh != a)
}
