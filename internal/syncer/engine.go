// Package syncer reconciles the on-device record store with the remote
// record service. Both halves of a cycle are idempotent and safe to retry
// at the next scheduled tick; within one cycle push strictly precedes pull.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/derived"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/remote"
	"github.com/florinapp/florin/internal/service"
	"github.com/florinapp/florin/internal/storage"
)

// Engine performs push and pull between the record store and the remote
// service. It reads and writes records only through the store's public
// operations, so store invariants (one change event per mutation, validated
// writes) hold for replayed remote records exactly as for local ones.
type Engine struct {
	store    service.Store
	remote   remote.Service
	cache    *derived.Cache
	owner    string
	ownerMu  sync.Mutex
	statusMu sync.Mutex
	status   service.SyncStatus
	inFlight atomic.Bool

	// Progress, when set, is called after each record is pushed or pulled.
	Progress func(done, total int)
}

// New creates a sync engine. The owner key is installed at sign-in via
// SetOwner; push and pull fail with ErrAuth until then.
func New(store service.Store, svc remote.Service, cache *derived.Cache) *Engine {
	return &Engine{
		store:  store,
		remote: svc,
		cache:  cache,
	}
}

// SetOwner installs the authenticated user's owner key.
func (e *Engine) SetOwner(owner string) {
	e.ownerMu.Lock()
	defer e.ownerMu.Unlock()
	e.owner = owner
}

// Owner returns the current owner key, empty when unauthenticated.
func (e *Engine) Owner() string {
	e.ownerMu.Lock()
	defer e.ownerMu.Unlock()
	return e.owner
}

// Status returns the sync state for display.
func (e *Engine) Status() service.SyncStatus {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	st := e.status
	st.InFlight = e.inFlight.Load()
	return st
}

// Sync runs one push-then-pull cycle. A cycle triggered while another is in
// flight is skipped, not queued, so remote records are never applied twice
// concurrently. Pull is skipped when push did not fully succeed: local
// records that failed to upload must not be overwritten by stale remote
// state.
func (e *Engine) Sync(ctx context.Context) (service.SyncResult, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return service.SyncResult{}, common.ErrSyncInProgress
	}
	defer e.inFlight.Store(false)

	initialUpload, err := e.store.GetSetting(ctx, storage.SettingInitialSyncPending)
	if err != nil {
		slog.Warn("failed to read initial sync flag", "error", err)
	}

	result := e.Push(ctx)
	if result.OK() {
		pull := e.Pull(ctx)
		result.Pulled = pull.Pulled
		result.Failed += pull.Failed
		result.Errors = append(result.Errors, pull.Errors...)
	} else {
		result.Errors = append(result.Errors, "pull skipped: push did not complete")
	}

	result.CompletedAt = time.Now().UTC()
	result.Message = fmt.Sprintf("pushed %d, pulled %d, %d failed",
		result.Pushed, result.Pulled, result.Failed)
	if initialUpload == "true" {
		result.Message = "initial upload: " + result.Message
	}

	e.statusMu.Lock()
	e.status.LastResult = &result
	if result.OK() {
		e.status.LastSyncAt = result.CompletedAt
	}
	e.statusMu.Unlock()

	if result.OK() {
		if err := e.store.SetSetting(ctx, storage.SettingLastSyncAt,
			result.CompletedAt.Format(time.RFC3339)); err != nil {
			slog.Warn("failed to record sync time", "error", err)
		}
	}

	slog.Info("sync cycle finished", "message", result.Message)
	return result, nil
}

// Push uploads every local record to the remote service, keyed by
// (id, owner). Server-side upsert makes repeated pushes of unchanged
// records no-ops. Failures are record-at-a-time: records that succeed stay
// synced even when others fail.
func (e *Engine) Push(ctx context.Context) service.SyncResult {
	var result service.SyncResult

	owner := e.Owner()
	if owner == "" {
		result.Failed = 1
		result.Errors = append(result.Errors, common.ErrAuth.Error())
		return result
	}

	var batches [][]remote.Record
	total := 0
	for _, kind := range model.Kinds {
		recs, err := e.localRecords(ctx, kind, owner)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", kind, err))
			batches = append(batches, nil)
			continue
		}
		batches = append(batches, recs)
		total += len(recs)
	}

	done := 0
	for i, kind := range model.Kinds {
		for _, rec := range batches[i] {
			if err := e.remote.Upsert(ctx, kind, rec); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s %d: %v", kind, rec.ID, err))
			} else {
				result.Pushed++
			}
			done++
			if e.Progress != nil {
				e.Progress(done, total)
			}
		}
	}

	if result.OK() {
		if err := e.store.SetSetting(ctx, storage.SettingInitialSyncPending, "false"); err != nil {
			slog.Warn("failed to clear initial sync flag", "error", err)
		}
	}

	return result
}

// Pull downloads every remote record owned by the authenticated user and
// applies it through the store's full-record upsert. Remote is
// authoritative: last-writer-wins at whole-record granularity. Derived
// state is recomputed once from history afterwards, not per record, so a
// batch of remote transactions cannot double-count asset balances.
func (e *Engine) Pull(ctx context.Context) service.SyncResult {
	var result service.SyncResult

	owner := e.Owner()
	if owner == "" {
		result.Failed = 1
		result.Errors = append(result.Errors, common.ErrAuth.Error())
		return result
	}

	for _, kind := range model.Kinds {
		recs, err := e.remote.SelectAll(ctx, kind, owner)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", kind, err))
			continue
		}

		for _, rec := range recs {
			if err := e.applyRecord(ctx, kind, rec); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s %d: %v", kind, rec.ID, err))
			} else {
				result.Pulled++
			}
		}
	}

	if e.cache != nil {
		if err := e.cache.RecomputeAll(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("recompute balances: %v", err))
		}
		if err := e.cache.RefreshGoals(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("refresh goals: %v", err))
		}
	}

	return result
}

// localRecords enumerates one collection as wire records. Every record is
// stamped with the owner key so the remote conflict key is stable.
func (e *Engine) localRecords(ctx context.Context, kind model.Kind, owner string) ([]remote.Record, error) {
	var out []remote.Record

	add := func(id int64, entity any) error {
		fields, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("failed to encode %s %d: %w", kind, id, err)
		}
		out = append(out, remote.Record{ID: id, Owner: owner, Fields: fields})
		return nil
	}

	switch kind {
	case model.KindCategory:
		cats, err := e.store.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		for _, cat := range cats {
			cat.OwnerKey = owner
			if err := add(cat.ID, cat); err != nil {
				return nil, err
			}
		}
	case model.KindAsset:
		assets, err := e.store.ListAssets(ctx)
		if err != nil {
			return nil, err
		}
		for _, asset := range assets {
			if err := add(asset.ID, asset); err != nil {
				return nil, err
			}
		}
	case model.KindTransaction:
		txns, err := e.store.ListTransactions(ctx)
		if err != nil {
			return nil, err
		}
		for _, txn := range txns {
			txn.OwnerKey = owner
			if err := add(txn.ID, txn); err != nil {
				return nil, err
			}
		}
	case model.KindInvestment:
		invs, err := e.store.ListInvestments(ctx)
		if err != nil {
			return nil, err
		}
		for _, inv := range invs {
			inv.OwnerKey = owner
			if err := add(inv.ID, inv); err != nil {
				return nil, err
			}
		}
	case model.KindGoal:
		goals, err := e.store.ListGoals(ctx)
		if err != nil {
			return nil, err
		}
		for _, goal := range goals {
			goal.OwnerKey = owner
			if err := add(goal.ID, goal); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: collection %q is not synced", common.ErrValidation, kind)
	}

	return out, nil
}

// applyRecord writes one remote record into the store. The remote id wins
// over anything in the payload so identifiers survive the round trip.
func (e *Engine) applyRecord(ctx context.Context, kind model.Kind, rec remote.Record) error {
	switch kind {
	case model.KindCategory:
		var cat model.Category
		if err := json.Unmarshal(rec.Fields, &cat); err != nil {
			return fmt.Errorf("failed to decode category: %w", err)
		}
		cat.ID = rec.ID
		cat.OwnerKey = rec.Owner
		return e.store.PutCategory(ctx, cat)
	case model.KindAsset:
		var asset model.Asset
		if err := json.Unmarshal(rec.Fields, &asset); err != nil {
			return fmt.Errorf("failed to decode asset: %w", err)
		}
		asset.ID = rec.ID
		return e.store.PutAsset(ctx, asset)
	case model.KindTransaction:
		var txn model.Transaction
		if err := json.Unmarshal(rec.Fields, &txn); err != nil {
			return fmt.Errorf("failed to decode transaction: %w", err)
		}
		txn.ID = rec.ID
		txn.OwnerKey = rec.Owner
		return e.store.PutTransaction(ctx, txn)
	case model.KindInvestment:
		var inv model.Investment
		if err := json.Unmarshal(rec.Fields, &inv); err != nil {
			return fmt.Errorf("failed to decode investment: %w", err)
		}
		inv.ID = rec.ID
		inv.OwnerKey = rec.Owner
		return e.store.PutInvestment(ctx, inv)
	case model.KindGoal:
		var goal model.Goal
		if err := json.Unmarshal(rec.Fields, &goal); err != nil {
			return fmt.Errorf("failed to decode goal: %w", err)
		}
		goal.ID = rec.ID
		goal.OwnerKey = rec.Owner
		return e.store.PutGoal(ctx, goal)
	default:
		return fmt.Errorf("%w: collection %q is not synced", common.ErrValidation, kind)
	}
}

// MarkInitialSyncIfNeeded flags pre-authentication local data for upload.
// Called once at sign-in; the flag is cleared by the first fully successful
// push so offline-created records are never silently discarded.
func (e *Engine) MarkInitialSyncIfNeeded(ctx context.Context) error {
	last, err := e.store.GetSetting(ctx, storage.SettingLastSyncAt)
	if err != nil {
		return err
	}
	if last != "" {
		return nil
	}

	for _, kind := range model.Kinds {
		recs, err := e.localRecords(ctx, kind, "pending")
		if err != nil {
			return err
		}
		if len(recs) > 0 {
			return e.store.SetSetting(ctx, storage.SettingInitialSyncPending, "true")
		}
	}
	return nil
}
