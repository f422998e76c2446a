package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/model"
)

func assetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage asset buckets",
		Long: `List and manage the balance-bearing buckets (cash, bank, card,
investment, other) that transactions settle against. Balances are derived
from transaction history.`,
	}

	cmd.AddCommand(listAssetsCmd())
	cmd.AddCommand(addAssetCmd())
	cmd.AddCommand(deleteAssetCmd())
	cmd.AddCommand(recomputeAssetsCmd())

	return cmd
}

func listAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List asset buckets and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			assets, err := store.ListAssets(ctx)
			if err != nil {
				return fmt.Errorf("failed to list assets: %w", err)
			}

			if len(assets) == 0 {
				fmt.Println(infoStyle.Render("No asset buckets. Use 'florin assets add' to create one."))
				return nil
			}

			cur := displayCurrency(ctx, store)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Kind"),
				headerStyle.Render("Name"),
				headerStyle.Render("Balance"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 12),
				strings.Repeat("-", 16),
				strings.Repeat("-", 12))

			for _, asset := range assets {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					asset.ID, asset.Kind, asset.Name, formatAmount(asset.Balance, cur))
			}

			return nil
		},
	}
}

func addAssetCmd() *cobra.Command {
	var (
		kind  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an asset bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			asset := model.Asset{
				Name:  args[0],
				Kind:  model.AssetKind(kind),
				Color: color,
			}
			if err := store.CreateAsset(ctx, &asset); err != nil {
				return fmt.Errorf("failed to create asset: %w", err)
			}

			// Existing history may already reference this bucket's channel.
			if err := derived.New(store).RecomputeAsset(ctx, asset.Kind); err != nil {
				return fmt.Errorf("failed to compute balance: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Created %s bucket %q (id %d)", asset.Kind, asset.Name, asset.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.AssetKindBank), "bucket kind (cash, bank, card, investment, other)")
	cmd.Flags().StringVar(&color, "color", "", "display color")

	return cmd
}

func deleteAssetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an asset bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid asset id %q", args[0])
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteAsset(ctx, id); err != nil {
				return fmt.Errorf("failed to delete asset: %w", err)
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("Deleted asset %d", id)))
			return nil
		},
	}
}

func recomputeAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every balance from transaction history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := derived.New(store).RecomputeAll(ctx); err != nil {
				return fmt.Errorf("failed to recompute balances: %w", err)
			}

			fmt.Println(successStyle.Render("Balances recomputed from history"))
			return nil
		},
	}
}
