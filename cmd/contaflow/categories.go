package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the chart of categories",
		Long:  `List, add, update and delete the revenue and expense categories transactions are reconciled against.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(editCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(seedCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories ordered by code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.ListCategories(ctx, model.CategoryType(categoryType))
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.FormatInfo("No categories found. Use 'contaflow categories seed' to load the default chart."))
				return nil
			}

			rows := make([][]string, 0, len(categories))
			for _, cat := range categories {
				rows = append(rows, []string{
					cat.Code,
					cat.Name,
					string(cat.Type),
					cat.Description,
				})
			}

			fmt.Print(cli.RenderTable(
				[]string{"CODE", "NAME", "TYPE", "DESCRIPTION"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", "", "filter by type (revenue, expense)")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		code        string
		name        string
		categoryT   string
		description string
		parentCode  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat := &model.Category{
				Code:        code,
				Name:        name,
				Type:        model.CategoryType(strings.ToLower(categoryT)),
				Description: description,
				IsActive:    true,
			}

			if parentCode != "" {
				parent, err := store.GetCategoryByCode(ctx, parentCode)
				if err != nil {
					return fmt.Errorf("parent category %q: %w", parentCode, err)
				}
				cat.ParentID = &parent.ID
			}

			if err := store.CreateCategory(ctx, cat); err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %s (%s)", cat.Code, cat.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&code, "code", "c", "", "hierarchical code, e.g. 1.1.01 (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "category name (required)")
	cmd.Flags().StringVarP(&categoryT, "type", "t", "", "revenue or expense (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what belongs in this category")
	cmd.Flags().StringVarP(&parentCode, "parent", "p", "", "parent category code")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func editCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <code>",
		Short: "Edit a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.GetCategoryByCode(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get category: %w", err)
			}

			applyStringFlag(cmd, "name", &cat.Name)
			applyStringFlag(cmd, "description", &cat.Description)
			if cmd.Flags().Changed("active") {
				cat.IsActive, _ = cmd.Flags().GetBool("active")
			}

			if err := store.UpdateCategory(ctx, cat); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %s", cat.Code)))
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "category name")
	cmd.Flags().StringP("description", "d", "", "what belongs in this category")
	cmd.Flags().Bool("active", true, "whether the category is selectable")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a category and its rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.GetCategoryByCode(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get category: %w", err)
			}

			if err := store.DeleteCategory(ctx, cat.ID); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted category %s", cat.Code)))
			return nil
		},
	}
}

// seedCategory is one node of the default chart. Parent references the code
// of an earlier entry.
type seedCategory struct {
	Code   string
	Name   string
	Parent string
	Type   model.CategoryType
}

// defaultChart is a starter chart of categories for Brazilian small
// businesses billing through Asaas.
var defaultChart = []seedCategory{
	{Code: "1.0", Name: "Receitas", Type: model.CategoryRevenue},
	{Code: "1.1", Name: "Receita Operacional", Parent: "1.0", Type: model.CategoryRevenue},
	{Code: "1.1.01", Name: "Vendas de Produtos", Parent: "1.1", Type: model.CategoryRevenue},
	{Code: "1.1.02", Name: "Prestação de Serviços", Parent: "1.1", Type: model.CategoryRevenue},
	{Code: "1.1.03", Name: "Recorrências", Parent: "1.1", Type: model.CategoryRevenue},
	{Code: "1.2", Name: "Receita Financeira", Parent: "1.0", Type: model.CategoryRevenue},
	{Code: "1.2.01", Name: "Rendimentos", Parent: "1.2", Type: model.CategoryRevenue},
	{Code: "1.2.02", Name: "Estornos Recebidos", Parent: "1.2", Type: model.CategoryRevenue},
	{Code: "2.0", Name: "Despesas", Type: model.CategoryExpense},
	{Code: "2.1", Name: "Despesas Operacionais", Parent: "2.0", Type: model.CategoryExpense},
	{Code: "2.1.01", Name: "Fornecedores", Parent: "2.1", Type: model.CategoryExpense},
	{Code: "2.1.02", Name: "Serviços Contratados", Parent: "2.1", Type: model.CategoryExpense},
	{Code: "2.2", Name: "Despesas com Pessoal", Parent: "2.0", Type: model.CategoryExpense},
	{Code: "2.2.01", Name: "Salários", Parent: "2.2", Type: model.CategoryExpense},
	{Code: "2.2.02", Name: "Pró-labore", Parent: "2.2", Type: model.CategoryExpense},
	{Code: "2.3", Name: "Despesas Financeiras", Parent: "2.0", Type: model.CategoryExpense},
	{Code: "2.3.01", Name: "Taxas Bancárias", Parent: "2.3", Type: model.CategoryExpense},
	{Code: "2.3.02", Name: "Taxas Asaas", Parent: "2.3", Type: model.CategoryExpense},
	{Code: "2.4", Name: "Despesas Administrativas", Parent: "2.0", Type: model.CategoryExpense},
	{Code: "2.4.01", Name: "Software e Assinaturas", Parent: "2.4", Type: model.CategoryExpense},
	{Code: "2.4.02", Name: "Material de Escritório", Parent: "2.4", Type: model.CategoryExpense},
	{Code: "2.5", Name: "Impostos", Parent: "2.0", Type: model.CategoryExpense},
	{Code: "2.5.01", Name: "Simples Nacional", Parent: "2.5", Type: model.CategoryExpense},
	{Code: "2.5.02", Name: "ISS", Parent: "2.5", Type: model.CategoryExpense},
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default chart of categories",
		Long:  `Create the default revenue and expense categories. Codes that already exist are left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			created, err := seedChart(ctx, store)
			if err != nil {
				return err
			}

			if created == 0 {
				fmt.Println(cli.FormatInfo("Chart already seeded, nothing to do."))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %d categories", created)))
			return nil
		},
	}
}

func seedChart(ctx context.Context, store service.Storage) (int, error) {
	created := 0
	ids := make(map[string]int64, len(defaultChart))

	for _, seed := range defaultChart {
		if existing, err := store.GetCategoryByCode(ctx, seed.Code); err == nil {
			ids[seed.Code] = existing.ID
			continue
		} else if !errors.Is(err, common.ErrNotFound) {
			return created, fmt.Errorf("checking category %s: %w", seed.Code, err)
		}

		cat := &model.Category{
			Code:     seed.Code,
			Name:     seed.Name,
			Type:     seed.Type,
			IsActive: true,
		}
		if seed.Parent != "" {
			if parentID, ok := ids[seed.Parent]; ok {
				cat.ParentID = &parentID
			}
		}

		if err := store.CreateCategory(ctx, cat); err != nil {
			return created, fmt.Errorf("creating category %s: %w", seed.Code, err)
		}
		ids[seed.Code] = cat.ID
		created++
	}

	return created, nil
}
