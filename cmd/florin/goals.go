package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/model"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage spending goals",
		Long: `List, set, and delete per-category spending goals. Setting a goal for a
category that already has one raises the existing target instead of
creating a second goal.`,
	}

	cmd.AddCommand(listGoalsCmd())
	cmd.AddCommand(setGoalCmd())
	cmd.AddCommand(deleteGoalCmd())

	return cmd
}

func listGoalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			goals, err := store.ListGoals(ctx)
			if err != nil {
				return fmt.Errorf("failed to list goals: %w", err)
			}

			if len(goals) == 0 {
				fmt.Println(infoStyle.Render("No goals set. Use 'florin goals set' to create one."))
				return nil
			}

			categories, err := store.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			names := make(map[int64]string, len(categories))
			for _, cat := range categories {
				names[cat.ID] = cat.Name
			}

			cache := derived.New(store)
			cur := displayCurrency(ctx, store)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Category"),
				headerStyle.Render("Target"),
				headerStyle.Render("Progress"),
				headerStyle.Render("Done"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 16),
				strings.Repeat("-", 12),
				strings.Repeat("-", 12),
				strings.Repeat("-", 4))

			for _, goal := range goals {
				name, ok := names[goal.CategoryID]
				if !ok {
					name = subtleStyle.Render(model.UncategorizedName)
				}
				progress, err := cache.GoalProgress(ctx, goal)
				if err != nil {
					return fmt.Errorf("failed to compute progress: %w", err)
				}
				done := ""
				if goal.Completed {
					done = successStyle.Render("yes")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					goal.ID, name,
					formatAmount(goal.TargetAmount, cur),
					formatAmount(progress, cur),
					done)
			}

			return nil
		},
	}
}

func setGoalCmd() *cobra.Command {
	var (
		categoryID int64
		targetStr  string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a goal for an expense category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			target, err := decimal.NewFromString(targetStr)
			if err != nil {
				return fmt.Errorf("invalid target %q", targetStr)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := store.GetCategory(ctx, categoryID)
			if err != nil {
				return err
			}
			if cat == nil {
				return fmt.Errorf("category %d does not exist", categoryID)
			}
			if cat.Kind != model.CategoryKindExpense {
				return fmt.Errorf("goals apply to expense categories, %q is %s", cat.Name, cat.Kind)
			}

			goal := model.Goal{CategoryID: categoryID, TargetAmount: target}
			if err := store.CreateGoal(ctx, &goal); err != nil {
				return fmt.Errorf("failed to set goal: %w", err)
			}

			if err := derived.New(store).RefreshGoal(ctx, categoryID); err != nil {
				return fmt.Errorf("failed to refresh goal: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf(
				"Goal for %q now targets %s (id %d)", cat.Name, goal.TargetAmount, goal.ID)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&categoryID, "category", 0, "expense category id (required)")
	cmd.Flags().StringVar(&targetStr, "target", "", "target amount (required)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func deleteGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid goal id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteGoal(ctx, id); err != nil {
				return fmt.Errorf("failed to delete goal: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Deleted goal %d", id)))
			return nil
		},
	}
}
