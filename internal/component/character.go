package component

import "github.com/hearthsim/hearth/internal/core/ecs"

// Character marks a villager or the player.
// Pure data with no methods. Systems do all the mutation.
type Character struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
}

// Health is current and maximum hit points.
type Health struct {
	Current float64 `yaml:"current"`
	Max     float64 `yaml:"max"`
}

var (
	CharacterComponent = ecs.NewComponent[Character]("character")
	HealthComponent    = ecs.NewComponent[Health]("health")
)
