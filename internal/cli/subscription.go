package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSubscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Manage your subscription",
	}

	cmd.AddCommand(newSubscriptionStatusCmd())
	cmd.AddCommand(newSubscriptionSubscribeCmd())
	cmd.AddCommand(newSubscriptionCancelCmd())
	cmd.AddCommand(newSubscriptionStudentOfferCmd())

	return cmd
}

func newSubscriptionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current subscription status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := apiClient.SubscriptionStatus(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch subscription status: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(status)
			}

			fmt.Printf("Plan: %s\n", formatPlan(status.Plan, status.IsStudentOffer))
			if status.Subscription == nil {
				fmt.Println("No active subscription.")
				return nil
			}

			sub := status.Subscription
			fmt.Printf("Active: %t\n", sub.IsActive)
			fmt.Printf("Started: %s\n", formatTime(sub.StartDate))
			fmt.Printf("Expires: %s\n", formatTime(sub.EndDate))
			if sub.Provider != "" {
				fmt.Printf("Provider: %s\n", sub.Provider)
			}
			return nil
		},
	}
}

func newSubscriptionSubscribeCmd() *cobra.Command {
	var paymentID string

	cmd := &cobra.Command{
		Use:   "subscribe <plan>",
		Short: "Subscribe to a plan using the mock payment provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := apiClient.RecordMockPayment(context.Background(), args[0], paymentID)
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}

			fmt.Printf("Subscribed to plan: %s\n", formatPlan(status.Plan, status.IsStudentOffer))
			if status.Subscription != nil {
				fmt.Printf("Expires: %s\n", formatTime(status.Subscription.EndDate))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&paymentID, "payment-id", "", "Payment reference (generated when omitted)")

	return cmd
}

func newSubscriptionCancelCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				answer := promptInput("Cancel your subscription immediately? (y/N): ")
				if answer != "y" && answer != "Y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			status, err := apiClient.CancelSubscription(context.Background())
			if err != nil {
				return fmt.Errorf("failed to cancel subscription: %w", err)
			}

			fmt.Printf("Subscription cancelled. Current plan: %s\n", status.Plan)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func newSubscriptionStudentOfferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim-student-offer",
		Short: "Claim the one-time student offer",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := apiClient.ClaimStudentOffer(context.Background())
			if err != nil {
				return fmt.Errorf("failed to claim student offer: %w", err)
			}

			fmt.Printf("Student offer claimed. Current plan: %s\n", formatPlan(status.Plan, status.IsStudentOffer))
			if status.Subscription != nil {
				fmt.Printf("Expires: %s\n", formatTime(status.Subscription.EndDate))
			}
			return nil
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
