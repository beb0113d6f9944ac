package system

import (
	"math"
	"time"

	"github.com/hearthsim/hearth/internal/component"
	"github.com/hearthsim/hearth/internal/core/ecs"
	"github.com/hearthsim/hearth/internal/core/event"
	coresys "github.com/hearthsim/hearth/internal/core/system"
	"github.com/hearthsim/hearth/internal/core/world"
)

const (
	NeedsSystemName = "needs"

	// HungerChanged fires whenever an entity's hunger crosses a whole point.
	HungerChanged = "hunger:changed"
	// Starving fires once when hunger reaches zero.
	Starving = "hunger:starving"
)

// HungerChange is the payload of HungerChanged and Starving.
type HungerChange struct {
	Entity   ecs.EntityID
	Previous float64
	Current  float64
}

// NeedsSystem drains hunger over time and applies starvation damage to
// Health. Entities without Health still get hungry but take no damage.
type NeedsSystem struct {
	coresys.Base
	world *world.World
}

func NewNeedsSystem(w *world.World) *NeedsSystem {
	return &NeedsSystem{
		Base:  coresys.NewBase(NeedsSystemName, component.HungerComponent.Type()),
		world: w,
	}
}

func (s *NeedsSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	for _, id := range s.Entities() {
		h, ok := world.Get(s.world, component.HungerComponent, id)
		if !ok {
			continue
		}
		prev := h.Value
		h.Value = math.Max(0, h.Value-h.Rate*secs)

		if math.Floor(prev) != math.Floor(h.Value) {
			s.world.Events().Emit(event.Event{
				Type:    HungerChanged,
				Payload: HungerChange{Entity: id, Previous: prev, Current: h.Value},
			})
		}
		if prev > 0 && h.Value == 0 {
			s.world.Events().Queue(event.Event{
				Type:    Starving,
				Payload: HungerChange{Entity: id, Previous: prev, Current: 0},
			})
		}
	}

	ecs.Each2(s.world.Components(), component.HungerComponent, component.HealthComponent,
		func(_ ecs.EntityID, h *component.Hunger, hp *component.Health) {
			if h.Value > 0 || h.StarveDamage <= 0 {
				return
			}
			hp.Current = math.Max(0, hp.Current-h.StarveDamage*secs)
		})
}

// Feed restores hunger by amount, capped at Max. It returns false when the
// entity is gone or has no hunger, which is normal for delayed callbacks.
func Feed(w *world.World, id ecs.EntityID, amount float64) bool {
	h, ok := world.Get(w, component.HungerComponent, id)
	if !ok {
		return false
	}
	h.Value = math.Min(h.Max, h.Value+amount)
	world.Set(w, component.HungerComponent, id, h)
	return true
}
