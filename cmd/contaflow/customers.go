package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

func customersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Manage customers",
		Long:  `List, add, update and delete customers, and sync them with the billing platform.`,
	}

	cmd.AddCommand(listCustomersCmd())
	cmd.AddCommand(showCustomerCmd())
	cmd.AddCommand(addCustomerCmd())
	cmd.AddCommand(editCustomerCmd())
	cmd.AddCommand(deleteCustomerCmd())
	cmd.AddCommand(pullCustomersCmd())
	cmd.AddCommand(pushCustomerCmd())

	return cmd
}

func listCustomersCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customers, err := store.ListCustomers(ctx, search)
			if err != nil {
				return fmt.Errorf("failed to list customers: %w", err)
			}

			if len(customers) == 0 {
				fmt.Println(cli.FormatInfo("No customers found. Use 'contaflow customers add' or 'contaflow customers pull'."))
				return nil
			}

			rows := make([][]string, 0, len(customers))
			for _, c := range customers {
				synced := ""
				if c.Synced {
					synced = cli.SuccessIcon
				}
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10),
					c.Name,
					c.CpfCnpj,
					c.Email,
					c.AsaasID,
					synced,
				})
			}

			fmt.Print(cli.RenderTable(
				[]string{"ID", "NAME", "CPF/CNPJ", "EMAIL", "ASAAS ID", "SYNCED"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name, CPF/CNPJ or email")
	return cmd
}

func showCustomerCmd() *cobra.Command {
	var withPayments bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one customer with their subscriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid customer id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customer, err := store.GetCustomer(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get customer: %w", err)
			}

			content := fmt.Sprintf("CPF/CNPJ: %s\nEmail: %s\nPhone: %s\nMobile: %s\nAsaas ID: %s\nNotes: %s",
				customer.CpfCnpj, customer.Email, customer.Phone, customer.MobilePhone, customer.AsaasID, customer.Notes)
			fmt.Println(cli.RenderBox(customer.Name, content))

			subs, err := store.ListSubscriptions(ctx, customer.ID)
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}
			if len(subs) > 0 {
				rows := make([][]string, 0, len(subs))
				for _, s := range subs {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						string(s.Cycle),
						string(s.BillingType),
						s.NextDueDate.Format("2006-01-02"),
						fmt.Sprintf("%.2f", s.Value),
						string(s.Status),
					})
				}
				fmt.Print(cli.RenderTable(
					[]string{"ID", "CYCLE", "BILLING", "NEXT DUE", "VALUE", "STATUS"},
					rows,
				))
			}

			if !withPayments {
				return nil
			}
			if customer.AsaasID == "" {
				fmt.Println(cli.FormatWarning("Customer has no Asaas ID; push or pull first."))
				return nil
			}
			return printCustomerPayments(cmd, customer.AsaasID)
		},
	}

	cmd.Flags().BoolVar(&withPayments, "payments", false, "also list the customer's charges on the billing platform")
	return cmd
}

// printCustomerPayments fetches the customer's charges from the billing
// platform and renders them.
func printCustomerPayments(cmd *cobra.Command, asaasID string) error {
	ctx := cmd.Context()

	client, err := newBillingClient()
	if err != nil {
		return err
	}

	var rows [][]string
	for offset, hasMore := 0, true; hasMore; offset += 100 {
		var payments []service.BillingPayment
		payments, hasMore, err = client.ListPayments(ctx, asaasID, 100, offset)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}
		for _, p := range payments {
			paid := ""
			if p.PaymentDate != nil {
				paid = p.PaymentDate.Format("2006-01-02")
			}
			rows = append(rows, []string{
				p.ID,
				p.DueDate.Format("2006-01-02"),
				paid,
				fmt.Sprintf("%.2f", p.Value),
				p.BillingType,
				p.Status,
			})
		}
	}

	if len(rows) == 0 {
		fmt.Println(cli.FormatInfo("No charges on the billing platform."))
		return nil
	}
	fmt.Print(cli.RenderTable(
		[]string{"ASAAS ID", "DUE", "PAID", "VALUE", "BILLING", "STATUS"},
		rows,
	))
	return nil
}

func addCustomerCmd() *cobra.Command {
	customer := &model.Customer{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateCustomer(ctx, customer); err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created customer %d (%s)", customer.ID, customer.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&customer.Name, "name", "n", "", "customer name (required)")
	cmd.Flags().StringVar(&customer.CpfCnpj, "cpf-cnpj", "", "CPF or CNPJ")
	cmd.Flags().StringVarP(&customer.Email, "email", "e", "", "email address")
	cmd.Flags().StringVar(&customer.Phone, "phone", "", "landline phone")
	cmd.Flags().StringVar(&customer.MobilePhone, "mobile", "", "mobile phone (used for notifications)")
	cmd.Flags().StringVar(&customer.Address, "address", "", "street address")
	cmd.Flags().StringVar(&customer.AddressNumber, "address-number", "", "address number")
	cmd.Flags().StringVar(&customer.Complement, "complement", "", "address complement")
	cmd.Flags().StringVar(&customer.Province, "province", "", "district")
	cmd.Flags().StringVar(&customer.PostalCode, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&customer.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func editCustomerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid customer id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customer, err := store.GetCustomer(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get customer: %w", err)
			}

			applyStringFlag(cmd, "name", &customer.Name)
			applyStringFlag(cmd, "cpf-cnpj", &customer.CpfCnpj)
			applyStringFlag(cmd, "email", &customer.Email)
			applyStringFlag(cmd, "phone", &customer.Phone)
			applyStringFlag(cmd, "mobile", &customer.MobilePhone)
			applyStringFlag(cmd, "notes", &customer.Notes)

			if err := store.UpdateCustomer(ctx, customer); err != nil {
				return fmt.Errorf("failed to update customer: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated customer %d", customer.ID)))
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "customer name")
	cmd.Flags().String("cpf-cnpj", "", "CPF or CNPJ")
	cmd.Flags().StringP("email", "e", "", "email address")
	cmd.Flags().String("phone", "", "landline phone")
	cmd.Flags().String("mobile", "", "mobile phone")
	cmd.Flags().String("notes", "", "free-form notes")

	return cmd
}

func deleteCustomerCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a customer and their subscriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid customer id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customer, err := store.GetCustomer(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get customer: %w", err)
			}

			if !force {
				ok, err := cli.Confirm(ctx, os.Stdin, os.Stdout,
					fmt.Sprintf("Delete %q and all their subscriptions?", customer.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(cli.FormatInfo("Aborted."))
					return nil
				}
			}

			if err := store.DeleteCustomer(ctx, id); err != nil {
				return fmt.Errorf("failed to delete customer: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted customer %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}

func pullCustomersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Import customers from the billing platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			syncer, _, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			bar := newProgressBar("Pulling customers...")
			report, err := syncer.PullCustomers(ctx, func(_ int) { _ = bar.Add(1) })
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

func pushCustomerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <id>",
		Short: "Create or update a customer on the billing platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid customer id %q", args[0])
			}

			syncer, store, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			customer, err := store.GetCustomer(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get customer: %w", err)
			}

			if err := syncer.PushCustomer(ctx, customer); err != nil {
				return fmt.Errorf("failed to push customer: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pushed customer %d (asaas id %s)", customer.ID, customer.AsaasID)))
			return nil
		},
	}
}

// applyStringFlag copies a flag value into dest only when the flag was set.
func applyStringFlag(cmd *cobra.Command, name string, dest *string) {
	if cmd.Flags().Changed(name) {
		value, _ := cmd.Flags().GetString(name)
		*dest = value
	}
}
