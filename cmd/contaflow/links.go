package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/model"
)

func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage payment links",
		Long:  `Create shareable checkout links on the billing platform and keep a local mirror of them.`,
	}

	cmd.AddCommand(listLinksCmd())
	cmd.AddCommand(addLinkCmd())
	cmd.AddCommand(pullLinksCmd())

	return cmd
}

func listLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List payment links, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			links, err := store.ListPaymentLinks(ctx)
			if err != nil {
				return fmt.Errorf("failed to list payment links: %w", err)
			}

			if len(links) == 0 {
				fmt.Println(cli.FormatInfo("No payment links found."))
				return nil
			}

			rows := make([][]string, 0, len(links))
			for _, link := range links {
				value := "free amount"
				if link.Value != nil {
					value = fmt.Sprintf("%.2f", *link.Value)
				}
				rows = append(rows, []string{
					strconv.FormatInt(link.ID, 10),
					link.Name,
					string(link.BillingType),
					string(link.ChargeType),
					value,
					string(link.Status),
					link.URL,
				})
			}

			fmt.Print(cli.RenderTable(
				[]string{"ID", "NAME", "BILLING", "CHARGE", "VALUE", "STATUS", "URL"},
				rows,
			))
			return nil
		},
	}
}

func addLinkCmd() *cobra.Command {
	var (
		name            string
		description     string
		billingType     string
		chargeType      string
		value           float64
		dueDays         int
		maxInstallments int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a payment link on the billing platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			syncer, _, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			link := &model.PaymentLink{
				Name:        name,
				Description: description,
				BillingType: model.BillingType(strings.ToUpper(billingType)),
				ChargeType:  model.ChargeType(strings.ToUpper(chargeType)),
				Status:      model.PaymentLinkActive,
			}
			if cmd.Flags().Changed("value") {
				link.Value = &value
			}
			if dueDays > 0 {
				link.DueDateLimitDays = &dueDays
			}
			if maxInstallments > 0 {
				link.MaxInstallments = &maxInstallments
			}

			if err := syncer.PushPaymentLink(ctx, link); err != nil {
				return fmt.Errorf("failed to create payment link: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Created payment link"))
			fmt.Println(cli.LinkIcon + " " + link.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "link name (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "shown on the checkout page")
	cmd.Flags().StringVar(&billingType, "billing-type", "UNDEFINED", "payment method (BOLETO, CREDIT_CARD, PIX, UNDEFINED)")
	cmd.Flags().StringVar(&chargeType, "charge-type", "DETACHED", "charge type (DETACHED, INSTALLMENT, RECURRENT)")
	cmd.Flags().Float64VarP(&value, "value", "v", 0, "fixed amount (omit for free-amount links)")
	cmd.Flags().IntVar(&dueDays, "due-days", 0, "days until a generated charge is due")
	cmd.Flags().IntVar(&maxInstallments, "max-installments", 0, "installment limit for card payments")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func pullLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Import payment links from the billing platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			syncer, _, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			bar := newProgressBar("Pulling payment links...")
			report, err := syncer.PullPaymentLinks(ctx, func(_ int) { _ = bar.Add(1) })
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
