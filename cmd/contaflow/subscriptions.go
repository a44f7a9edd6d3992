package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/model"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "Manage recurring subscriptions",
	}

	cmd.AddCommand(listSubscriptionsCmd())
	cmd.AddCommand(addSubscriptionCmd())
	cmd.AddCommand(editSubscriptionCmd())
	cmd.AddCommand(deleteSubscriptionCmd())
	cmd.AddCommand(pullSubscriptionsCmd())
	cmd.AddCommand(pushSubscriptionCmd())

	return cmd
}

func listSubscriptionsCmd() *cobra.Command {
	var customerID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions ordered by next due date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			subs, err := store.ListSubscriptions(ctx, customerID)
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}

			if len(subs) == 0 {
				fmt.Println(cli.FormatInfo("No subscriptions found."))
				return nil
			}

			rows := make([][]string, 0, len(subs))
			for _, s := range subs {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.CustomerName,
					string(s.Cycle),
					string(s.BillingType),
					s.NextDueDate.Format("2006-01-02"),
					fmt.Sprintf("%.2f", s.Value),
					string(s.Status),
				})
			}

			fmt.Print(cli.RenderTable(
				[]string{"ID", "CUSTOMER", "CYCLE", "BILLING", "NEXT DUE", "VALUE", "STATUS"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&customerID, "customer", "c", 0, "filter by customer id")
	return cmd
}

func addSubscriptionCmd() *cobra.Command {
	var (
		customerID  int64
		description string
		cycle       string
		billingType string
		nextDueDate string
		value       float64
		maxPayments int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			due, err := parseDateFlag(nextDueDate, "next-due")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sub := &model.Subscription{
				CustomerID:  customerID,
				Description: description,
				Cycle:       model.BillingCycle(strings.ToUpper(cycle)),
				BillingType: model.BillingType(strings.ToUpper(billingType)),
				Status:      model.SubscriptionActive,
				NextDueDate: due,
				Value:       value,
			}
			if maxPayments > 0 {
				sub.MaxPayments = &maxPayments
			}

			if err := store.CreateSubscription(ctx, sub); err != nil {
				return fmt.Errorf("failed to create subscription: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created subscription %d", sub.ID)))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&customerID, "customer", "c", 0, "customer id (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what this subscription is for")
	cmd.Flags().StringVar(&cycle, "cycle", "MONTHLY", "billing cycle (WEEKLY, BIWEEKLY, MONTHLY, QUARTERLY, SEMIANNUALLY, YEARLY)")
	cmd.Flags().StringVar(&billingType, "billing-type", "PIX", "payment method (BOLETO, CREDIT_CARD, PIX, UNDEFINED)")
	cmd.Flags().StringVar(&nextDueDate, "next-due", "", "next due date, YYYY-MM-DD (required)")
	cmd.Flags().Float64VarP(&value, "value", "v", 0, "charge amount (required)")
	cmd.Flags().IntVar(&maxPayments, "max-payments", 0, "stop after this many charges (0 = unlimited)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("next-due")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func editSubscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid subscription id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sub, err := store.GetSubscription(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get subscription: %w", err)
			}

			applyStringFlag(cmd, "description", &sub.Description)
			if cmd.Flags().Changed("value") {
				sub.Value, _ = cmd.Flags().GetFloat64("value")
			}
			if cmd.Flags().Changed("next-due") {
				raw, _ := cmd.Flags().GetString("next-due")
				due, err := parseDateFlag(raw, "next-due")
				if err != nil {
					return err
				}
				sub.NextDueDate = due
			}
			if cmd.Flags().Changed("status") {
				raw, _ := cmd.Flags().GetString("status")
				sub.Status = model.SubscriptionStatus(strings.ToUpper(raw))
			}

			if err := store.UpdateSubscription(ctx, sub); err != nil {
				return fmt.Errorf("failed to update subscription: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated subscription %d", sub.ID)))
			return nil
		},
	}

	cmd.Flags().StringP("description", "d", "", "what this subscription is for")
	cmd.Flags().Float64P("value", "v", 0, "charge amount")
	cmd.Flags().String("next-due", "", "next due date, YYYY-MM-DD")
	cmd.Flags().String("status", "", "subscription status (ACTIVE, INACTIVE, EXPIRED)")

	return cmd
}

func deleteSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid subscription id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteSubscription(ctx, id); err != nil {
				return fmt.Errorf("failed to delete subscription: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted subscription %d", id)))
			return nil
		},
	}
}

func pullSubscriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Import subscriptions from the billing platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			syncer, _, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			bar := newProgressBar("Pulling subscriptions...")
			report, err := syncer.PullSubscriptions(ctx, func(_ int) { _ = bar.Add(1) })
			_ = bar.Finish()
			fmt.Println()
			if err != nil {
				return err
			}

			printSyncReport(report)
			return nil
		},
	}
}

func pushSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <id>",
		Short: "Create or update a subscription on the billing platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid subscription id %q", args[0])
			}

			syncer, store, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sub, err := store.GetSubscription(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get subscription: %w", err)
			}

			if err := syncer.PushSubscription(ctx, sub); err != nil {
				return fmt.Errorf("failed to push subscription: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pushed subscription %d (asaas id %s)", sub.ID, sub.AsaasID)))
			return nil
		},
	}
}
