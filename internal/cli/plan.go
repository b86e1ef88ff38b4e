package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List available plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Plans(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(plans)
			}

			table := NewTable("ID", "NAME", "PRICE", "DURATION", "FEATURES")
			for _, p := range plans {
				table.AddRow(
					p.ID,
					p.Name,
					fmt.Sprintf("%.2f %s", p.Price, p.Currency),
					strconv.Itoa(p.Months)+" months",
					truncate(strings.Join(p.Features, ", "), 60),
				)
			}
			table.Render()
			return nil
		},
	}

	return cmd
}
