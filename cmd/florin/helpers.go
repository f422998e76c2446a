package main

import (
	"context"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/florinapp/florin/internal/bus"
	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/config"
	"github.com/florinapp/florin/internal/remote"
	"github.com/florinapp/florin/internal/storage"
)

// initStore initializes the record store with migrations applied.
func initStore(ctx context.Context) (*storage.SQLiteStore, error) {
	return initStoreWithBus(ctx, nil)
}

func initStoreWithBus(ctx context.Context, changeBus *bus.Bus) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(config.DatabasePath(), changeBus)
	if err != nil {
		return nil, common.NewUserError("could not open the local database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, common.NewUserError("could not prepare the local database", err)
	}

	return store, nil
}

// initRemote builds the remote service client from configuration, minting a
// stable device id on first use.
func initRemote(ctx context.Context, store *storage.SQLiteStore) (*remote.Client, error) {
	baseURL := viper.GetString("remote.url")
	token := viper.GetString("remote.token")

	deviceID, err := store.GetSetting(ctx, "device_id")
	if err != nil {
		return nil, err
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
		if err := store.SetSetting(ctx, "device_id", deviceID); err != nil {
			return nil, err
		}
	}

	client, err := remote.NewClient(baseURL, token, deviceID)
	if err != nil {
		return nil, common.NewUserError("remote sync is not configured; set remote.url and remote.token", err)
	}
	return client, nil
}

// displayCurrency returns the configured display currency, defaulting to USD.
func displayCurrency(ctx context.Context, store *storage.SQLiteStore) *money.Currency {
	code, err := store.GetSetting(ctx, storage.SettingCurrency)
	if err == nil && code != "" {
		if cur := money.GetCurrency(code); cur != nil {
			return cur
		}
	}
	return money.GetCurrency(money.USD)
}

// formatAmount renders a decimal amount in the given currency.
func formatAmount(amount decimal.Decimal, cur *money.Currency) string {
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
