package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/scheduler"
	"github.com/florinapp/florin/internal/storage"
	"github.com/florinapp/florin/internal/syncer"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one push-then-pull cycle now",
		Long: `Upload local records to the remote service, then download and apply the
remote state. Requires remote.url and remote.token in configuration; local
data is never required to sync and remains fully usable if sync fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := initRemote(ctx, store)
			if err != nil {
				return err
			}

			user, err := client.CurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("auth check failed: %w", err)
			}
			if user == nil {
				fmt.Println(infoStyle.Render("Not signed in; set remote.token to enable sync."))
				return nil
			}

			engine := syncer.New(store, client, derived.New(store))
			ownerKey := user.ID
			if ownerKey == "" {
				ownerKey = user.Email
			}
			engine.SetOwner(ownerKey)

			if err := engine.MarkInitialSyncIfNeeded(ctx); err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			engine.Progress = func(done, total int) {
				if bar == nil {
					bar = progressbar.Default(int64(total), "pushing")
				}
				_ = bar.Set(done)
			}

			result, err := engine.Sync(ctx)
			if err != nil {
				return err
			}

			if result.OK() {
				fmt.Println(successStyle.Render(result.Message))
			} else {
				fmt.Println(errorStyle.Render(result.Message))
				for _, msg := range result.Errors {
					fmt.Println(subtleStyle.Render("  " + msg))
				}
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the sync scheduler until interrupted",
		Long: `Resolve the authentication state (bounded by sync.auth_timeout), run an
immediate push-then-pull cycle when signed in, and keep syncing every
sync.interval. Ctrl-C stops the scheduler; local data is retained.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := initRemote(ctx, store)
			if err != nil {
				return err
			}

			engine := syncer.New(store, client, derived.New(store))
			sched := scheduler.New(store, client, engine, scheduler.Options{
				Interval:    viper.GetDuration("sync.interval"),
				AuthTimeout: viper.GetDuration("sync.auth_timeout"),
			})

			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()

			fmt.Println(infoStyle.Render(fmt.Sprintf("Scheduler running (%s). Ctrl-C to stop.", sched.State())))
			<-ctx.Done()
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show auth and sync status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			authStatus, err := store.GetSetting(ctx, storage.SettingAuthStatus)
			if err != nil {
				return err
			}
			if authStatus == "" {
				authStatus = storage.AuthStatusSkipped
			}

			lastSync, err := store.GetSetting(ctx, storage.SettingLastSyncAt)
			if err != nil {
				return err
			}
			if lastSync == "" {
				lastSync = "never"
			} else if at, perr := time.Parse(time.RFC3339, lastSync); perr == nil {
				lastSync = at.Local().Format("2006-01-02 15:04:05")
			}

			profile, err := store.GetProfile(ctx)
			if err != nil {
				return err
			}

			initialPending, err := store.GetSetting(ctx, storage.SettingInitialSyncPending)
			if err != nil {
				return err
			}

			fmt.Printf("Auth status: %s\n", authStatus)
			fmt.Printf("Last sync:   %s\n", lastSync)
			if profile != nil {
				fmt.Printf("Account:     %s\n", profile.Email)
			}
			if initialPending == "true" {
				fmt.Println(infoStyle.Render("Records created before sign-in are waiting for their first upload."))
			}
			return nil
		},
	}
}
