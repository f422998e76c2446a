package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
		Long:  `List, add, update, and delete the categories transactions are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := store.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(infoStyle.Render("No categories found. Use 'florin categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Kind"),
				headerStyle.Render("Name"),
				headerStyle.Render("Icon"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 8),
				strings.Repeat("-", 20),
				strings.Repeat("-", 8))

			for _, cat := range categories {
				icon := cat.Icon
				if icon == "" {
					icon = subtleStyle.Render("(none)")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, cat.Kind, cat.Name, icon)
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		kind  string
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cat := model.Category{
				Name:  args[0],
				Kind:  model.CategoryKind(kind),
				Icon:  icon,
				Color: color,
			}
			if err := store.CreateCategory(ctx, &cat); err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Created %s category %q (id %d)", cat.Kind, cat.Name, cat.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.CategoryKindExpense), "category kind (income, expense)")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	cmd.Flags().StringVar(&color, "color", "", "display color")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name  string
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category's display fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var patch service.CategoryPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("icon") {
				patch.Icon = &icon
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}

			if err := store.UpdateCategory(ctx, id, patch); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Updated category %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&icon, "icon", "", "new icon")
	cmd.Flags().StringVar(&color, "color", "", "new color")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Transactions that referenced it are kept and render
as Uncategorized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Deleted category %d", id)))
			return nil
		},
	}
}
