package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/florinapp/florin/internal/model"
)

// Legacy free-form investments, kept for data recorded before asset buckets.
func investmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "investments",
		Short: "Manage legacy investment records",
	}

	cmd.AddCommand(listInvestmentsCmd())
	cmd.AddCommand(addInvestmentCmd())
	cmd.AddCommand(deleteInvestmentCmd())

	return cmd
}

func listInvestmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List investment records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			invs, err := store.ListInvestments(ctx)
			if err != nil {
				return fmt.Errorf("failed to list investments: %w", err)
			}

			if len(invs) == 0 {
				fmt.Println(infoStyle.Render("No investment records."))
				return nil
			}

			cur := displayCurrency(ctx, store)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Amount"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 12))

			for _, inv := range invs {
				fmt.Fprintf(w, "%d\t%s\t%s\n", inv.ID, inv.Name, formatAmount(inv.Amount, cur))
			}

			return nil
		},
	}
}

func addInvestmentCmd() *cobra.Command {
	var (
		amountStr string
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an investment record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := decimal.NewFromString(amountStr)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amountStr)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			inv := model.Investment{Name: args[0], Amount: amount, Notes: notes}
			if err := store.CreateInvestment(ctx, &inv); err != nil {
				return fmt.Errorf("failed to create investment: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Created investment %q (id %d)", inv.Name, inv.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&amountStr, "amount", "0", "invested amount")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")

	return cmd
}

func deleteInvestmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an investment record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid investment id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteInvestment(ctx, id); err != nil {
				return fmt.Errorf("failed to delete investment: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Deleted investment %d", id)))
			return nil
		},
	}
}
