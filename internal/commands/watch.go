package commands

import (
	"github.com/spf13/cobra"

	"github.com/hbc-dev/hbc/internal/convert"
	"github.com/hbc-dev/hbc/internal/importer"
)

func newWatchCommand(global *globalOptions) *cobra.Command {
	var bank, outDir string
	var move, history bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Convert CSV files as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.load(cmd)
			if err != nil {
				return err
			}

			var opts []convert.Option
			if history {
				opts = append(opts, convert.WithHistory(convert.WatchOutDir(args[0], outDir)))
			}
			conv := convert.New(cfg, importer.DefaultRegistry(), log, opts...)

			return conv.Watch(cmd.Context(), args[0], convert.WatchOptions{
				Bank:   bank,
				OutDir: outDir,
				Move:   move,
			})
		},
	}

	cmd.Flags().StringVarP(&bank, "bank", "b", "bawag", "bank export format and config entry")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default <dir>/converted)")
	cmd.Flags().BoolVar(&move, "move", false, "move converted files to <dir>/processed")
	cmd.Flags().BoolVar(&history, "history", false, "append converted files to history.csv in the output directory")

	return cmd
}
