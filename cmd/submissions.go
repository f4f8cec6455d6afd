package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/radar-coach/internal/store"
)

var (
	submissionsRing     string
	submissionsQuadrant string
	submissionsLimit    int
	submissionsJSON     bool
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List saved blip submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("submissions"); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListSubmissions(cmd.Context(), store.SubmissionFilter{
			Ring:     submissionsRing,
			Quadrant: submissionsQuadrant,
			Limit:    submissionsLimit,
		})
		if err != nil {
			return err
		}

		if submissionsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tRING\tQUADRANT\tCOMPLETENESS\tQUALITY\tCREATED")
		for _, rec := range records {
			name, ring, quadrant := "", "", ""
			if rec.Blip.Name != nil {
				name = *rec.Blip.Name
			}
			if rec.Blip.Ring != nil {
				ring = string(*rec.Blip.Ring)
			}
			if rec.Blip.Quadrant != nil {
				quadrant = string(*rec.Blip.Quadrant)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%.0f\t%s\n",
				rec.ID, name, ring, quadrant,
				rec.CompletenessScore, rec.QualityScore,
				rec.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func init() {
	submissionsCmd.Flags().StringVar(&submissionsRing, "ring", "", "filter by ring")
	submissionsCmd.Flags().StringVar(&submissionsQuadrant, "quadrant", "", "filter by quadrant")
	submissionsCmd.Flags().IntVar(&submissionsLimit, "limit", 50, "maximum rows")
	submissionsCmd.Flags().BoolVar(&submissionsJSON, "json", false, "output JSON instead of a table")
	rootCmd.AddCommand(submissionsCmd)
}
