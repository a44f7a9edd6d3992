package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/engine"
	"github.com/contaflow/contaflow/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `Rules categorize transactions automatically. On import, every pending
transaction is checked against the active rules in priority order (highest
first); the first match assigns its category and marks the transaction
auto-reconciled.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(editRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(testRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ListRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.FormatInfo("No rules found. Use 'contaflow rules add' to create one."))
				return nil
			}

			rows := make([][]string, 0, len(rules))
			for _, r := range rules {
				active := ""
				if r.IsActive {
					active = cli.SuccessIcon
				}
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.Name,
					string(r.Field),
					string(r.Operator),
					r.Value,
					r.CategoryCode,
					strconv.Itoa(r.Priority),
					strconv.Itoa(r.TimesApplied),
					active,
				})
			}

			fmt.Print(cli.RenderTable(
				[]string{"ID", "NAME", "FIELD", "OPERATOR", "VALUE", "CATEGORY", "PRIORITY", "APPLIED", "ACTIVE"},
				rows,
			))
			return nil
		},
	}
}

func addRuleCmd() *cobra.Command {
	var (
		name         string
		field        string
		operator     string
		value        string
		categoryCode string
		priority     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.GetCategoryByCode(ctx, categoryCode)
			if err != nil {
				return fmt.Errorf("category %q: %w", categoryCode, err)
			}

			rule := &model.Rule{
				Name:       name,
				Field:      model.RuleField(strings.ToLower(field)),
				Operator:   model.RuleOperator(strings.ToLower(operator)),
				Value:      value,
				CategoryID: cat.ID,
				Priority:   priority,
				IsActive:   true,
			}

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %d", rule.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "rule name")
	cmd.Flags().StringVarP(&field, "field", "f", "description", "field to match (description, type, customer)")
	cmd.Flags().StringVarP(&operator, "operator", "o", "contains", "comparison (contains, equals, starts_with, ends_with)")
	cmd.Flags().StringVarP(&value, "value", "v", "", "text to match, case-insensitive (required)")
	cmd.Flags().StringVarP(&categoryCode, "category", "c", "", "category code to assign (required)")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "evaluation priority, higher runs first")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func editRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule, err := store.GetRule(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get rule: %w", err)
			}

			applyStringFlag(cmd, "name", &rule.Name)
			applyStringFlag(cmd, "value", &rule.Value)
			if cmd.Flags().Changed("field") {
				raw, _ := cmd.Flags().GetString("field")
				rule.Field = model.RuleField(strings.ToLower(raw))
			}
			if cmd.Flags().Changed("operator") {
				raw, _ := cmd.Flags().GetString("operator")
				rule.Operator = model.RuleOperator(strings.ToLower(raw))
			}
			if cmd.Flags().Changed("category") {
				raw, _ := cmd.Flags().GetString("category")
				cat, err := store.GetCategoryByCode(ctx, raw)
				if err != nil {
					return fmt.Errorf("category %q: %w", raw, err)
				}
				rule.CategoryID = cat.ID
			}
			if cmd.Flags().Changed("priority") {
				rule.Priority, _ = cmd.Flags().GetInt("priority")
			}
			if cmd.Flags().Changed("active") {
				rule.IsActive, _ = cmd.Flags().GetBool("active")
			}

			if err := store.UpdateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated rule %d", rule.ID)))
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "rule name")
	cmd.Flags().StringP("field", "f", "", "field to match")
	cmd.Flags().StringP("operator", "o", "", "comparison operator")
	cmd.Flags().StringP("value", "v", "", "text to match")
	cmd.Flags().StringP("category", "c", "", "category code to assign")
	cmd.Flags().IntP("priority", "p", 0, "evaluation priority")
	cmd.Flags().Bool("active", true, "whether the rule is evaluated")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}

func testRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <transaction-id>",
		Short: "Show which rule would categorize a transaction",
		Long:  `Evaluate the active rules against one transaction without writing anything.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}

			rule, err := engine.New(store).DryRun(ctx, txn)
			if err != nil {
				return fmt.Errorf("failed to evaluate rules: %w", err)
			}

			if rule == nil {
				fmt.Println(cli.FormatInfo("No rule matches this transaction."))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Rule %d (%s %s %q) would assign category %s",
				rule.ID, rule.Field, rule.Operator, rule.Value, rule.CategoryCode)))
			return nil
		},
	}
}
