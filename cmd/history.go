package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the cached radar history corpus",
}

var historyRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-download radar edition CSVs into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		n, err := initCorpus().Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d historical blips\n", n)
		return nil
	},
}

var historyLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Check whether a technology appeared on past radar editions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		corpus := initCorpus()
		matches, err := corpus.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Printf("%q has not appeared on a previous radar\n", args[0])
			return nil
		}

		zap.L().Debug("history lookup", zap.String("name", args[0]), zap.Int("matches", len(matches)))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VOLUME\tRING\tQUADRANT\tNAME")
		for _, m := range matches {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Volume, m.Ring, m.Quadrant, m.Name)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.AddCommand(historyRefreshCmd)
	historyCmd.AddCommand(historyLookupCmd)
	rootCmd.AddCommand(historyCmd)
}
