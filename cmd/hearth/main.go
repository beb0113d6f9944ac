package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "hearth",
		Short:         "Life-sim ECS world runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config TOML (env HEARTH_CONFIG)")

	resolve := func() string {
		if cfgPath != "" {
			return cfgPath
		}
		return os.Getenv("HEARTH_CONFIG")
	}

	root.AddCommand(newRunCmd(resolve), newQueryCmd(resolve))
	return root
}
