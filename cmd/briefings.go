package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lokeshkumar99/ai-competition-scout/internal/store"
)

var (
	briefingsCompetitor  string
	briefingsProductLine string
	briefingsLimit       int
)

var briefingsCmd = &cobra.Command{
	Use:   "briefings",
	Short: "Search stored briefings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		briefings, err := st.SearchBriefings(ctx, store.SearchFilter{
			Competitor:  briefingsCompetitor,
			ProductLine: briefingsProductLine,
			Limit:       briefingsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "search briefings")
		}

		out, err := json.MarshalIndent(briefings, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal briefings")
		}
		os.Stdout.Write(append(out, '\n'))
		return nil
	},
}

func init() {
	briefingsCmd.Flags().StringVar(&briefingsCompetitor, "competitor", "", "filter by competitor (substring, case-insensitive)")
	briefingsCmd.Flags().StringVar(&briefingsProductLine, "product-line", "", "filter by product line (substring, case-insensitive)")
	briefingsCmd.Flags().IntVar(&briefingsLimit, "limit", 0, "maximum rows to return (0 = all)")
	rootCmd.AddCommand(briefingsCmd)
}
