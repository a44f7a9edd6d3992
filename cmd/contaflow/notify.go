package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/config"
)

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send WhatsApp notifications",
	}

	cmd.AddCommand(notifySendCmd())
	cmd.AddCommand(notifyTestCmd())
	cmd.AddCommand(notifyStatusCmd())

	return cmd
}

func notifySendCmd() *cobra.Command {
	var (
		customerID int64
		phone      string
		message    string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to a customer or phone number",
		Long: `Send a WhatsApp message. Target either a customer (the message goes to
their mobile phone) or a raw phone number. Numbers are normalized to
international format with the Brazilian country code.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if customerID == 0 && phone == "" {
				return fmt.Errorf("provide --customer or --phone")
			}

			client, err := newMessagingClient()
			if err != nil {
				return err
			}

			target := phone
			if customerID != 0 {
				store, err := initStorage(ctx)
				if err != nil {
					return err
				}
				customer, err := store.GetCustomer(ctx, customerID)
				_ = store.Close()
				if err != nil {
					return fmt.Errorf("failed to get customer: %w", err)
				}
				if customer.MobilePhone == "" {
					return fmt.Errorf("customer %d has no mobile phone", customerID)
				}
				target = customer.MobilePhone
			}

			result := client.SendMessage(ctx, target, message)
			if !result.Success {
				fmt.Println(cli.FormatWarning("Send failed: " + result.Error))
				return nil
			}

			fmt.Println(cli.FormatSuccess("Message sent"))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&customerID, "customer", "c", 0, "customer id to notify")
	cmd.Flags().StringVarP(&phone, "phone", "p", "", "phone number to notify")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message text (required)")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func notifyTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test message to the configured test numbers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.Messaging.TestNumbers) == 0 {
				return fmt.Errorf("no whatsapp.test_numbers configured")
			}

			client, err := newMessagingClient()
			if err != nil {
				return err
			}

			sent := 0
			for _, number := range cfg.Messaging.TestNumbers {
				result := client.SendMessage(ctx, number, "contaflow test message "+cli.MessageIcon)
				if result.Success {
					sent++
					fmt.Println(cli.FormatSuccess("Sent to " + number))
				} else {
					fmt.Println(cli.FormatWarning("Failed for " + number + ": " + result.Error))
				}
			}

			fmt.Println(cli.FormatInfo(strconv.Itoa(sent) + "/" + strconv.Itoa(len(cfg.Messaging.TestNumbers)) + " delivered"))
			return nil
		},
	}
}

func notifyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the WhatsApp gateway connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newMessagingClient()
			if err != nil {
				return err
			}

			status := client.CheckInstanceStatus(cmd.Context())
			if !status.Success {
				fmt.Println(cli.FormatError("Gateway unreachable: " + status.Error))
				return nil
			}

			if status.Connected {
				fmt.Println(cli.FormatSuccess("Instance connected (" + status.Status + ")"))
			} else {
				fmt.Println(cli.FormatWarning("Instance not connected (" + status.Status + ")"))
			}
			return nil
		},
	}
}
