package ecs

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
// Generations start at 1, so the zero EntityID never refers to a live entity.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// EntityPool manages entity allocation with generational indices and a free list.
type EntityPool struct {
	generations []uint32
	alive       []bool
	freeList    []uint32
	count       int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, 1024),
		alive:       make([]bool, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

// Create returns an id that is not currently alive. Freed slots are reused
// with their bumped generation.
func (p *EntityPool) Create() EntityID {
	p.count++
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		p.alive[idx] = true
		return NewEntityID(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	p.alive = append(p.alive, true)
	return NewEntityID(idx, 1)
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.alive[idx] && p.generations[idx] == id.Generation()
}

// Destroy kills id and reports whether it was alive. Unknown and stale ids
// are ignored.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.alive[idx] = false
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.freeList = append(p.freeList, idx)
	p.count--
	return true
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int { return p.count }

// Each calls fn for every live entity in slot order.
func (p *EntityPool) Each(fn func(EntityID)) {
	for idx, ok := range p.alive {
		if ok {
			fn(NewEntityID(uint32(idx), p.generations[idx]))
		}
	}
}

// Reset forgets every entity. Ids issued before the reset stay dead because
// generations are preserved.
func (p *EntityPool) Reset() {
	p.freeList = p.freeList[:0]
	for idx := range p.alive {
		if p.alive[idx] {
			p.alive[idx] = false
			p.generations[idx]++
			if p.generations[idx] == 0 {
				p.generations[idx] = 1
			}
		}
	}
	for idx := len(p.alive) - 1; idx >= 0; idx-- {
		p.freeList = append(p.freeList, uint32(idx))
	}
	p.count = 0
}
