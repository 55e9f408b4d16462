package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-processor/internal/ingest"
	"github.com/joseph-ayodele/receipt-processor/internal/points"
)

// NewScoreCommand creates the score command.
func NewScoreCommand(_ *RootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "score <file>",
		Short: "Print the rule-by-rule score of a receipt file",
		Long: `Score a JSON or YAML receipt file without storing it.

Prints the points each rule awards and the total.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ingest.ReadReceiptFile(args[0])
			if err != nil {
				return err
			}
			b, err := points.Evaluate(r)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			return writeBreakdown(cmd.OutOrStdout(), b)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the breakdown as JSON")
	return cmd
}

func writeBreakdown(w io.Writer, b points.Breakdown) error {
	rows := []struct {
		label string
		value int
	}{
		{"retailer", b.Retailer},
		{"round dollar", b.RoundDollar},
		{"quarter multiple", b.QuarterMultiple},
		{"item pairs", b.ItemPairs},
		{"descriptions", b.Descriptions},
		{"purchase day", b.PurchaseDay},
		{"purchase time", b.PurchaseTime},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-18s%4d\n", r.label, r.value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-18s%4d\n", "total", b.Total)
	return err
}
