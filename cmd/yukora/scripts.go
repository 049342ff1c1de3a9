package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/yukora/internal/command"
)

func newScriptsCmd() *cobra.Command {
	var opts runtimeOptions
	cmd := &cobra.Command{
		Use:     "scripts",
		Aliases: []string{"ls"},
		Short:   "List playable scripts and console routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			service, err := newLocalService(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer service.Close()
			resp, err := service.ListScripts(cmd.Context())
			if err != nil {
				return err
			}
			for _, line := range command.ScriptLines(resp) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&opts.scriptFile, "scripts", "", "YAML script pack (overrides scripts.file)")
	return cmd
}
