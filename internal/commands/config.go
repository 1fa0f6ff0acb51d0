package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hbc-dev/hbc/internal/config"
)

func newConfigCommand(global *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration operations",
	}
	configCmd.AddCommand(newConfigShowCommand(global))
	return configCmd
}

func newConfigShowCommand(global *globalOptions) *cobra.Command {
	var bank string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := global.load(cmd)
			if err != nil {
				return err
			}

			resolved := make(map[string]config.BankConfig)
			if bank != "" {
				resolved[bank] = cfg.Bank(bank)
			} else {
				for _, id := range cfg.Banks() {
					resolved[id] = cfg.Bank(id)
				}
			}

			data, err := yaml.Marshal(resolved)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&bank, "bank", "b", "", "show a single bank")

	return cmd
}
