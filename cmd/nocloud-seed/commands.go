// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/nocloud-seed/cloudinit"
	"github.com/hashicorp/nocloud-seed/hooks"
	"github.com/hashicorp/nocloud-seed/ui"
	"github.com/spf13/cobra"
)

type machineFlags struct {
	name     string
	hostname string
	root     string
	dataDir  string
}

func (f *machineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Machine name (required)")
	cmd.Flags().StringVar(&f.root, "root", "", "Project root relative paths are resolved against (defaults to the working directory)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", hooks.DefaultDataDir, "Seed directory, relative to the project root unless absolute")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
}

func (f *machineFlags) rootPath() (string, error) {
	if f.root != "" {
		return f.root, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not determine working directory: %w", err)
	}

	return wd, nil
}

func (f *machineFlags) handler(opts *globalOptions, cmd *cobra.Command) *hooks.Handler {
	return hooks.New(opts.logger(cmd),
		hooks.WithDataDir(f.dataDir),
		hooks.WithUI(ui.NewConsole(cmd.ErrOrStderr(), f.name)),
	)
}

// newPrepareCmd creates the prepare subcommand
func newPrepareCmd(opts *globalOptions) *cobra.Command {
	var flags machineFlags
	var configPath string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Write the cloud-init seed of a machine",
		Long: `Write the documents configured in a YAML or HCL file into the machine's NoCloud
seed directory and print the read-only volume to add to the container.

Nothing is written, and nothing is printed, when no document is configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := flags.rootPath()
			if err != nil {
				return err
			}

			raw, err := cloudinit.LoadFile(cloudinit.ResolvePath(root, configPath))
			if err != nil {
				return err
			}

			m := &hooks.Machine{
				Provider:  hooks.DefaultProvider,
				Name:      flags.name,
				Hostname:  flags.hostname,
				RootPath:  root,
				CloudInit: cloudinit.Resolve(raw),
			}

			if err := flags.handler(opts, cmd).BeforeCreate(m); err != nil {
				return err
			}

			for _, v := range m.Volumes {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.hostname, "hostname", "", "Machine hostname (defaults to the name)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Cloud-init configuration, a cloud_init stanza in .hcl files, YAML otherwise (required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}

	return cmd
}

// newCleanupCmd creates the cleanup subcommand
func newCleanupCmd(opts *globalOptions) *cobra.Command {
	var flags machineFlags

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove the cloud-init seed of a machine",
		Long: `Remove the machine's NoCloud seed directory. Removing a seed that does not
exist is not an error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := flags.rootPath()
			if err != nil {
				return err
			}

			flags.handler(opts, cmd).AfterDestroy(&hooks.Machine{
				Provider: hooks.DefaultProvider,
				Name:     flags.name,
				RootPath: root,
			})

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// newRenderCmd creates the render subcommand
func newRenderCmd(opts *globalOptions) *cobra.Command {
	var configPath, kind, root string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a single normalized document",
		Long: `Print one document of a cloud-init YAML configuration the way it would be
written into the seed, without writing anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := cloudinit.ParseDocumentKind(kind)
			if err != nil {
				return err
			}

			if root == "" {
				if root, err = os.Getwd(); err != nil {
					return fmt.Errorf("could not determine working directory: %w", err)
				}
			}

			raw, err := cloudinit.LoadFile(cloudinit.ResolvePath(root, configPath))
			if err != nil {
				return err
			}

			doc := cloudinit.Resolve(raw).Document(k)
			if !doc.Active() {
				return fmt.Errorf("%s is not configured", k)
			}

			content, err := cloudinit.NewController(opts.logger(cmd)).Render(doc, root)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Cloud-init configuration, a cloud_init stanza in .hcl files, YAML otherwise (required)")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(cloudinit.UserData), "Document to render (user-data, meta-data, vendor-data, network-config)")
	cmd.Flags().StringVar(&root, "root", "", "Project root relative paths are resolved against (defaults to the working directory)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}

	return cmd
}
