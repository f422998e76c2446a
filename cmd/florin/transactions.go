package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/service"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
		Long:  `Record, list, edit, and delete income and expense transactions.`,
	}

	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(deleteTxCmd())

	return cmd
}

func listTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			txns, err := store.ListTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(infoStyle.Render("No transactions recorded."))
				return nil
			}

			// Resolve category names up front; dangling references render
			// as Uncategorized rather than failing.
			categories, err := store.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			names := make(map[int64]string, len(categories))
			for _, cat := range categories {
				names[cat.ID] = cat.Name
			}

			cur := displayCurrency(ctx, store)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Date"),
				headerStyle.Render("Kind"),
				headerStyle.Render("Category"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Via"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 10),
				strings.Repeat("-", 8),
				strings.Repeat("-", 16),
				strings.Repeat("-", 12),
				strings.Repeat("-", 6))

			for _, txn := range txns {
				name, ok := names[txn.CategoryID]
				if !ok {
					name = subtleStyle.Render(model.UncategorizedName)
				}
				via := string(txn.Via)
				if via == "" {
					via = subtleStyle.Render("-")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					txn.OccurredOn.Format("2006-01-02"),
					txn.Kind,
					name,
					formatAmount(txn.Amount, cur),
					via)
			}

			return nil
		},
	}
}

func addTxCmd() *cobra.Command {
	var (
		categoryID  int64
		amountStr   string
		description string
		dateStr     string
		via         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record an income or expense transaction. The kind is taken from the
category; a transaction paid through an asset channel moves that asset's
balance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			amount, err := decimal.NewFromString(amountStr)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amountStr)
			}

			occurred := time.Now().UTC()
			if dateStr != "" {
				occurred, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", dateStr)
				}
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// Callers are expected to pass a consistent category; the kind
			// is copied from it so the two agree for locally created records.
			cat, err := store.GetCategory(ctx, categoryID)
			if err != nil {
				return err
			}
			if cat == nil {
				return fmt.Errorf("category %d does not exist", categoryID)
			}

			txn := model.Transaction{
				CategoryID:  categoryID,
				Kind:        cat.Kind,
				Amount:      amount,
				Description: description,
				OccurredOn:  occurred,
				Via:         model.Channel(via),
			}
			if err := store.CreateTransaction(ctx, &txn); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			cache := derived.New(store)
			if err := cache.ApplyTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to update asset balance: %w", err)
			}
			if err := cache.RefreshGoal(ctx, txn.CategoryID); err != nil {
				return fmt.Errorf("failed to refresh goal: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Recorded %s of %s (id %d)", txn.Kind, amountStr, txn.ID)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id (required)")
	cmd.Flags().StringVar(&amountStr, "amount", "", "amount (required)")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringVar(&dateStr, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&via, "via", "", "payment channel (cash, card, bank, assets, other)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		amountStr   string
		description string
		via         string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			prior, err := store.GetTransaction(ctx, id)
			if err != nil {
				return err
			}
			if prior == nil {
				return fmt.Errorf("transaction %d does not exist", id)
			}

			var patch service.TransactionPatch
			if cmd.Flags().Changed("amount") {
				amount, err := decimal.NewFromString(amountStr)
				if err != nil {
					return fmt.Errorf("invalid amount %q", amountStr)
				}
				patch.Amount = &amount
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("via") {
				ch := model.Channel(via)
				patch.Via = &ch
			}

			if err := store.UpdateTransaction(ctx, id, patch); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			updated, err := store.GetTransaction(ctx, id)
			if err != nil {
				return err
			}

			// Reverse the prior effect before applying the new one so asset
			// balances never drift across repeated edits.
			cache := derived.New(store)
			if err := cache.ReverseTransaction(ctx, *prior); err != nil {
				return fmt.Errorf("failed to reverse prior balance effect: %w", err)
			}
			if err := cache.ApplyTransaction(ctx, *updated); err != nil {
				return fmt.Errorf("failed to update asset balance: %w", err)
			}
			if err := cache.RefreshGoal(ctx, updated.CategoryID); err != nil {
				return fmt.Errorf("failed to refresh goal: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Updated transaction %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&amountStr, "amount", "", "new amount")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&via, "via", "", "new payment channel")

	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			prior, err := store.GetTransaction(ctx, id)
			if err != nil {
				return err
			}

			if err := store.DeleteTransaction(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			if prior != nil {
				cache := derived.New(store)
				if err := cache.ReverseTransaction(ctx, *prior); err != nil {
					return fmt.Errorf("failed to reverse balance effect: %w", err)
				}
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}
