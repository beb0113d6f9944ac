package system

import (
	"time"

	"github.com/hearthsim/hearth/internal/component"
	coresys "github.com/hearthsim/hearth/internal/core/system"
	"github.com/hearthsim/hearth/internal/core/world"
)

const LifetimeSystemName = "lifetime"

// LifetimeSystem counts down Lifetime components and queues expired
// entities for end-of-frame destruction, so systems later in the frame can
// still read them.
type LifetimeSystem struct {
	coresys.Base
	world *world.World
}

func NewLifetimeSystem(w *world.World) *LifetimeSystem {
	return &LifetimeSystem{
		Base:  coresys.NewBase(LifetimeSystemName, component.LifetimeComponent.Type()),
		world: w,
	}
}

func (s *LifetimeSystem) Update(dt time.Duration) {
	for _, id := range s.Entities() {
		lt, ok := world.Get(s.world, component.LifetimeComponent, id)
		if !ok {
			continue
		}
		lt.Remaining -= dt.Seconds()
		if lt.Remaining <= 0 {
			s.world.MarkForDestruction(id)
		}
	}
}
