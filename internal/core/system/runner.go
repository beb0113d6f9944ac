package system

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hearthsim/hearth/internal/core/ecs"
)

// ErrDuplicateSystem is returned when a second system registers under a name
// that is already taken. It is a startup configuration error.
var ErrDuplicateSystem = eris.New("duplicate system name")

// Runner executes systems in registration order each tick.
type Runner struct {
	components *ecs.ComponentManager
	systems    []System
	byName     map[string]System
	log        *zap.Logger
}

func NewRunner(components *ecs.ComponentManager, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		components: components,
		systems:    make([]System, 0, 16),
		byName:     make(map[string]System, 16),
		log:        log,
	}
}

// Register appends s to the execution order and fires its OnInitialize hook.
func (r *Runner) Register(s System) error {
	if s == nil {
		return eris.New("nil system")
	}
	name := s.Name()
	if _, ok := r.byName[name]; ok {
		return eris.Wrapf(ErrDuplicateSystem, "register %q", name)
	}
	s.bind(r.components)
	r.systems = append(r.systems, s)
	r.byName[name] = s
	r.log.Debug("system registered",
		zap.String("system", name),
		zap.Int("order", len(r.systems)-1),
		zap.Strings("requires", typeNames(s.RequiredComponents())),
	)
	if h, ok := s.(Initializer); ok {
		h.OnInitialize()
	}
	return nil
}

func (r *Runner) Get(name string) System {
	return r.byName[name]
}

// Remove unregisters the named system and fires its OnShutdown hook.
func (r *Runner) Remove(name string) bool {
	s, ok := r.byName[name]
	if !ok {
		return false
	}
	delete(r.byName, name)
	for i, cur := range r.systems {
		if cur == s {
			r.systems = append(r.systems[:i:i], r.systems[i+1:]...)
			break
		}
	}
	shutdown(s)
	s.bind(nil)
	r.log.Debug("system removed", zap.String("system", name))
	return true
}

// Tick calls Update on every system once, in registration order. The list is
// captured first, so systems added or removed during the tick take effect on
// the next one. A system removed mid-tick is skipped.
func (r *Runner) Tick(dt time.Duration) {
	systems := make([]System, len(r.systems))
	copy(systems, r.systems)
	for _, s := range systems {
		if r.byName[s.Name()] != s {
			continue
		}
		s.Update(dt)
	}
}

func (r *Runner) Names() []string {
	out := make([]string, len(r.systems))
	for i, s := range r.systems {
		out[i] = s.Name()
	}
	return out
}

func (r *Runner) Len() int { return len(r.systems) }

// Shutdown removes every system, firing OnShutdown in reverse registration
// order.
func (r *Runner) Shutdown() {
	for i := len(r.systems) - 1; i >= 0; i-- {
		s := r.systems[i]
		shutdown(s)
		s.bind(nil)
	}
	r.systems = r.systems[:0]
	r.byName = make(map[string]System, 16)
}

func shutdown(s System) {
	if h, ok := s.(Shutdowner); ok {
		h.OnShutdown()
	}
}

func typeNames(ts []ecs.ComponentType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
