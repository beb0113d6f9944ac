package component

import "github.com/hearthsim/hearth/internal/core/ecs"

// Hunger drains by Rate points per second from Value toward zero. Starving
// entities lose Health at StarveDamage per second.
type Hunger struct {
	Value        float64 `yaml:"value"`
	Max          float64 `yaml:"max"`
	Rate         float64 `yaml:"rate"`
	StarveDamage float64 `yaml:"starve_damage"`
}

// Lifetime despawns its entity after Remaining runs out (ground items,
// summoned pets, temporary effects).
type Lifetime struct {
	Remaining float64 `yaml:"seconds"`
}

var (
	HungerComponent   = ecs.NewComponent[Hunger]("hunger")
	LifetimeComponent = ecs.NewComponent[Lifetime]("lifetime")
)
