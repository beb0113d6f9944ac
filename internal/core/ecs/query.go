package ecs

// EntitiesWithAll returns the entities holding every type in ts. It walks the
// smallest bucket and probes the others, so the result keeps that bucket's
// insertion order. An empty ts matches nothing.
func (m *ComponentManager) EntitiesWithAll(ts ...ComponentType) []EntityID {
	if len(ts) == 0 {
		return nil
	}
	smallest := -1
	for i, t := range ts {
		s, ok := m.stores[t]
		if !ok {
			return nil
		}
		if smallest < 0 || s.len() < m.stores[ts[smallest]].len() {
			smallest = i
		}
	}

	base := m.stores[ts[smallest]]
	out := make([]EntityID, 0, base.len())
	for _, id := range base.entities {
		match := true
		for i, t := range ts {
			if i == smallest {
				continue
			}
			if _, ok := m.stores[t].index[id]; !ok {
				match = false
				break
			}
		}
		if match {
			out = append(out, id)
		}
	}
	return out
}

// Each2 iterates over entities that have both component A and B.
func Each2[A, B any](m *ComponentManager, ca Component[A], cb Component[B], fn func(EntityID, *A, *B)) {
	for _, id := range m.EntitiesWithAll(ca.typ, cb.typ) {
		a, okA := ca.Get(m, id)
		b, okB := cb.Get(m, id)
		if okA && okB {
			fn(id, a, b)
		}
	}
}
