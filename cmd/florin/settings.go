package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/florinapp/florin/internal/storage"
)

// Device-level scalar settings: currency, theme, onboarding flag.
func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write device settings",
	}

	cmd.AddCommand(getSettingCmd())
	cmd.AddCommand(setSettingCmd())

	return cmd
}

var knownSettings = []string{
	storage.SettingOnboardingCompleted,
	storage.SettingCurrency,
	storage.SettingTheme,
}

func getSettingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			value, err := store.GetSetting(ctx, args[0])
			if err != nil {
				return err
			}
			if value == "" {
				fmt.Println(subtleStyle.Render("(unset)"))
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
}

func setSettingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting value",
		Long:  fmt.Sprintf("Set a device setting. Common keys: %v.", knownSettings),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetSetting(ctx, args[0], args[1]); err != nil {
				return err
			}

			fmt.Println(successStyle.Render(fmt.Sprintf("%s = %s", args[0], args[1])))
			return nil
		},
	}
}
