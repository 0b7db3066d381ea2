package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/reposettings/config"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.NewLoader(nil).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			cfg := *a.cfg
			if cfg.Lookup.Token != "" {
				cfg.Lookup.Token = "********"
			}
			return cfg.WriteYAML(cmd.OutOrStdout())
		},
	})

	return cmd
}
