package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hearthsim/hearth/internal/config"
	"github.com/hearthsim/hearth/internal/scripting"
)

func newRunCmd(cfgPath func() string) *cobra.Command {
	var profileMode string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the frame loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch profileMode {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			case "mem":
				defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			default:
				return eris.Errorf("unknown profile mode %q", profileMode)
			}
			return run(cmd.Context(), cfgPath())
		},
	}
	cmd.Flags().StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	return cmd
}

func run(ctx context.Context, cfgPath string) error {
	// 1. Load config
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return eris.Wrap(err, "load config")
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging, "run")
	if err != nil {
		return eris.Wrap(err, "init logger")
	}
	defer log.Sync()

	// 3. Build the world
	g, err := newGame(cfg, log)
	if err != nil {
		return err
	}
	defer g.close()

	log.Info("world ready",
		zap.String("world", g.world.ID().String()),
		zap.Int("entities", g.world.EntityCount()),
		zap.Strings("systems", g.world.SystemNames()),
		zap.Strings("blueprints", g.library.Names()),
	)

	// 4. Optional hot reload
	var reloads <-chan scripting.Change
	if cfg.Scripting.Watch {
		watcher, err := newWatcher(cfg)
		if err != nil {
			return eris.Wrap(err, "watch")
		}
		defer watcher.Close()
		reloads = watcher.Changes
		go func() {
			for err := range watcher.Errors {
				log.Warn("watch error", zap.Error(err))
			}
		}()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 5. Frame loop
	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down", zap.Uint64("frames", g.world.Frame()))
			return nil
		case change, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			g.reload(change.Path)
		case now := <-ticker.C:
			g.world.RunTimers(now)
			g.world.Update(now.Sub(last))
			last = now
			if cfg.Loop.MaxFrames > 0 && g.world.Frame() >= cfg.Loop.MaxFrames {
				log.Info("frame limit reached", zap.Uint64("frames", g.world.Frame()))
				return nil
			}
		}
	}
}

// newWatcher watches whichever of the scripts dir and the blueprint file
// exist at startup.
func newWatcher(cfg *config.Config) (*scripting.Watcher, error) {
	var routes scripting.Routes
	if st, err := os.Stat(cfg.Scripting.Dir); err == nil && st.IsDir() {
		routes.ScriptDir = cfg.Scripting.Dir
	}
	if cfg.Blueprints.Path != "" {
		if _, err := os.Stat(cfg.Blueprints.Path); err == nil {
			routes.BlueprintPath = cfg.Blueprints.Path
		}
	}
	return scripting.NewWatcher(routes)
}
