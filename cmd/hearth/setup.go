package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hearthsim/hearth/internal/blueprint"
	"github.com/hearthsim/hearth/internal/component"
	"github.com/hearthsim/hearth/internal/config"
	"github.com/hearthsim/hearth/internal/core/event"
	"github.com/hearthsim/hearth/internal/core/world"
	"github.com/hearthsim/hearth/internal/scripting"
	"github.com/hearthsim/hearth/internal/system"
)

// feedDelay is how long a starving villager waits before someone brings food.
const feedDelay = 3 * time.Second

type game struct {
	cfg     *config.Config
	log     *zap.Logger
	world   *world.World
	library *blueprint.Library
	routes  scripting.Routes
	scripts map[string]*scripting.ScriptSystem // by path
}

func newGame(cfg *config.Config, log *zap.Logger) (_ *game, err error) {
	w := world.New(
		world.WithLogger(log),
		world.WithStructuralEvents(cfg.World.StructuralEvents),
		world.WithQueueDrain(cfg.World.DrainQueueEachFrame),
	)
	g := &game{
		cfg:     cfg,
		log:     log,
		world:   w,
		library: blueprint.NewLibrary(),
		routes: scripting.Routes{
			ScriptDir:     cfg.Scripting.Dir,
			BlueprintPath: cfg.Blueprints.Path,
		},
		scripts: make(map[string]*scripting.ScriptSystem),
	}
	defer func() {
		if err != nil {
			g.close()
		}
	}()

	blueprint.Register(g.library, component.CharacterComponent)
	blueprint.Register(g.library, component.HealthComponent)
	blueprint.Register(g.library, component.HungerComponent)
	blueprint.Register(g.library, component.LifetimeComponent)

	if err := g.loadBlueprints(); err != nil {
		return nil, err
	}

	// Registration order is execution order.
	if err := w.AddSystem(system.NewNeedsSystem(w)); err != nil {
		return nil, err
	}
	if err := w.AddSystem(system.NewLifetimeSystem(w)); err != nil {
		return nil, err
	}
	var scripts []*scripting.ScriptSystem
	scripts, err = scripting.LoadDir(cfg.Scripting.Dir, w, log.Named("lua"))
	if err != nil {
		return nil, eris.Wrap(err, "load scripts")
	}
	for _, s := range scripts {
		g.scripts[s.Path()] = s
	}
	for _, s := range scripts {
		if err := w.AddSystem(s); err != nil {
			return nil, eris.Wrapf(err, "script %s", s.Path())
		}
	}

	event.On(w.Events(), system.Starving, func(p system.HungerChange) error {
		g.log.Info("villager starving, food on the way", zap.Uint64("entity", uint64(p.Entity)))
		w.After(feedDelay, "feed", func(w *world.World) {
			if !system.Feed(w, p.Entity, 50) {
				g.log.Debug("feed target gone", zap.Uint64("entity", uint64(p.Entity)))
			}
		})
		return nil
	})

	for _, name := range cfg.Blueprints.Spawn {
		id, err := g.library.Spawn(w, name)
		if err != nil {
			return nil, err
		}
		log.Debug("spawned", zap.String("blueprint", name), zap.Uint64("entity", uint64(id)))
	}
	return g, nil
}

func (g *game) loadBlueprints() error {
	path := g.cfg.Blueprints.Path
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		g.log.Warn("blueprint file not found", zap.String("path", path))
		return nil
	}
	return g.library.LoadFile(path)
}

// reload handles a file reported by the watcher. It runs on the frame loop.
// Files outside the configured scripts dir and blueprint file are ignored.
func (g *game) reload(path string) {
	path = filepath.Clean(path)
	switch g.routes.Classify(path) {
	case scripting.KindScript:
		if s, ok := g.scripts[path]; ok {
			if err := s.Reload(); err != nil {
				g.log.Error("script reload failed", zap.String("script", path), zap.Error(err))
			}
			return
		}
		s, err := scripting.LoadScript(path, g.world, g.log.Named("lua"))
		if err != nil {
			g.log.Error("script load failed", zap.String("script", path), zap.Error(err))
			return
		}
		if err := g.world.AddSystem(s); err != nil {
			s.Close()
			g.log.Error("script register failed", zap.String("script", path), zap.Error(err))
			return
		}
		g.scripts[path] = s
	case scripting.KindBlueprint:
		if err := g.library.LoadFile(path); err != nil {
			g.log.Error("blueprint reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		g.log.Info("blueprints reloaded", zap.Int("count", g.library.Len()))
	}
}

func (g *game) close() {
	g.world.Shutdown()
	for _, s := range g.scripts {
		s.Close()
	}
}
