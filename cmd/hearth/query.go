package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hearthsim/hearth/internal/config"
	"github.com/hearthsim/hearth/internal/core/query"
)

func newQueryCmd(cfgPath func() string) *cobra.Command {
	var frames int
	cmd := &cobra.Command{
		Use:     "query EXPR",
		Short:   "Spawn the configured blueprints, run some frames and list entities matching EXPR",
		Example: `  hearth query "CONTAINS(hunger) & !CONTAINS(lifetime)"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath())
			if err != nil {
				return eris.Wrap(err, "load config")
			}
			log, err := newLogger(cfg.Logging, "query")
			if err != nil {
				return eris.Wrap(err, "init logger")
			}
			defer log.Sync()
			g, err := newGame(cfg, log)
			if err != nil {
				return err
			}
			defer g.close()

			for i := 0; i < frames; i++ {
				g.world.Update(cfg.Loop.TickRate)
			}
			ids, err := query.Run(g.world, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				names := make([]string, 0, 4)
				for _, t := range g.world.ComponentsOf(id) {
					names = append(names, string(t))
				}
				fmt.Fprintf(out, "%d\t%s\n", uint64(id), strings.Join(names, ","))
			}
			fmt.Fprintf(out, "%d matching\n", len(ids))
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 1, "frames to run before querying")
	return cmd
}
