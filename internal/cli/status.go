package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show account and server summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}

				health, err := apiClient.Health(ctx)
				if err == nil {
					summary["server"] = health.Status
				}
				u, err := apiClient.GetCurrentUser(ctx)
				if err == nil {
					summary["email"] = u.Email
					summary["plan"] = u.Plan
					summary["studentOffer"] = u.IsStudentOffer
				}
				return printOutput(summary)
			}

			fmt.Println("Foliofy Account")
			fmt.Println(strings.Repeat("=", 40))

			health, err := apiClient.Health(ctx)
			if err != nil {
				fmt.Printf("  Server:   (error: %v)\n", err)
			} else {
				fmt.Printf("  Server:   %s\n", health.Status)
			}

			u, err := apiClient.GetCurrentUser(ctx)
			if err != nil {
				fmt.Printf("  Account:  (error: %v)\n", err)
				return nil
			}
			fmt.Printf("  Account:  %s (%s)\n", u.Name, u.Email)
			fmt.Printf("  Plan:     %s\n", formatPlan(u.Plan, u.IsStudentOffer))
			if u.Subscription != nil {
				fmt.Printf("  Expires:  %s\n", formatTime(u.Subscription.EndDate))
			}

			return nil
		},
	}
}
