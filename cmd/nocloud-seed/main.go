// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

// Command nocloud-seed prepares and removes NoCloud cloud-init seeds outside
// of a lifecycle host, for scripting and debugging.
package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

const appName = "nocloud-seed"

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd()

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type globalOptions struct {
	logLevel string
}

func (o *globalOptions) logger(cmd *cobra.Command) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   appName,
		Level:  hclog.LevelFromString(o.logLevel),
		Output: cmd.ErrOrStderr(),
	})
}

// newRootCmd creates the root command for nocloud-seed
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "NoCloud cloud-init seed tool",
		Long: `nocloud-seed materializes the user-data, meta-data, vendor-data and
network-config documents of a machine into a NoCloud seed directory and
prints the read-only volume that exposes it at /var/lib/cloud/seed/nocloud.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newPrepareCmd(opts),
		newCleanupCmd(opts),
		newRenderCmd(opts),
	)

	return rootCmd
}
