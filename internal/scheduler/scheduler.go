// Package scheduler drives periodic sync cycles and reacts to
// authentication-state transitions. It owns the only timer in the system;
// every transition cancels the previous timer before starting a new one, so
// two cycles are never scheduled concurrently.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
	"github.com/florinapp/florin/internal/remote"
	"github.com/florinapp/florin/internal/service"
	"github.com/florinapp/florin/internal/storage"
	"github.com/florinapp/florin/internal/syncer"
)

// State is the scheduler's position in its auth lifecycle.
type State string

const (
	// StateIdle is the state before Start.
	StateIdle State = "idle"
	// StateCheckingAuth is the bounded startup session check.
	StateCheckingAuth State = "checking-auth"
	// StateAuthenticated means a session exists and the periodic timer runs.
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated means the device runs local-only ("skipped").
	StateUnauthenticated State = "unauthenticated"
)

// Options configures the scheduler.
type Options struct {
	// Interval between periodic sync cycles. Defaults to 10 minutes.
	Interval time.Duration
	// AuthTimeout bounds the startup session check. A stuck check must not
	// hang the application; on timeout the device proceeds in skipped mode.
	// Defaults to 5 seconds.
	AuthTimeout time.Duration
}

// Scheduler is the state machine that starts and stops the sync cycle.
type Scheduler struct {
	store     service.Store
	remote    remote.Service
	engine    *syncer.Engine
	opts      Options
	ctx       context.Context
	stopTimer func()
	unsubAuth func()
	state     State
	mu        sync.Mutex
}

// New creates a scheduler. Start must be called before it does anything.
func New(store service.Store, svc remote.Service, engine *syncer.Engine, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Minute
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 5 * time.Second
	}
	return &Scheduler{
		store:  store,
		remote: svc,
		engine: engine,
		opts:   opts,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start resolves the initial auth state within the configured timeout and
// begins reacting to auth transitions. It returns once the state is known;
// periodic syncing continues in the background until ctx is canceled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.state = StateCheckingAuth
	s.ctx = ctx
	s.mu.Unlock()

	s.unsubAuth = s.remote.OnAuthStateChange(func(event remote.AuthEvent, user *remote.User) {
		switch event {
		case remote.AuthSignedIn:
			s.onSignIn(user)
		case remote.AuthSignedOut:
			s.onSignOut()
		}
	})

	checkCtx, cancel := context.WithTimeout(ctx, s.opts.AuthTimeout)
	defer cancel()

	user, err := s.remote.CurrentUser(checkCtx)
	if err != nil {
		// Timeout or unreachable remote both degrade to local-only mode;
		// local CRUD continues regardless.
		slog.Warn("auth check failed, continuing in skipped mode", "error", err)
		s.enterUnauthenticated()
		return nil
	}
	if user == nil {
		s.enterUnauthenticated()
		return nil
	}

	s.onSignIn(user)
	return nil
}

// Stop cancels any pending timer and stops reacting to auth transitions.
// Local data is untouched.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.state = StateIdle
	unsub := s.unsubAuth
	s.unsubAuth = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// TriggerSync runs one cycle immediately, the imperative hook behind a
// manual refresh. A cycle already in flight is reported, not duplicated.
func (s *Scheduler) TriggerSync(ctx context.Context) (service.SyncResult, error) {
	if s.State() != StateAuthenticated {
		return service.SyncResult{}, common.ErrAuth
	}
	return s.engine.Sync(ctx)
}

// SyncStatus exposes the engine's status for display.
func (s *Scheduler) SyncStatus() service.SyncStatus {
	return s.engine.Status()
}

func (s *Scheduler) onSignIn(user *remote.User) {
	if user == nil {
		return
	}

	ownerKey := user.ID
	if ownerKey == "" {
		ownerKey = user.Email
	}
	s.engine.SetOwner(ownerKey)

	ctx := s.lifecycleCtx()
	if err := s.store.SaveProfile(ctx, model.Profile{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsProUser:   user.IsProUser,
	}); err != nil {
		slog.Warn("failed to save profile", "error", err)
	}
	if err := s.store.SetSetting(ctx, storage.SettingAuthStatus, storage.AuthStatusAuthenticated); err != nil {
		slog.Warn("failed to record auth status", "error", err)
	}
	if err := s.engine.MarkInitialSyncIfNeeded(ctx); err != nil {
		slog.Warn("failed to flag initial sync", "error", err)
	}

	s.mu.Lock()
	s.cancelTimerLocked()
	s.state = StateAuthenticated
	timerCtx, cancel := context.WithCancel(ctx)
	s.stopTimer = cancel
	s.mu.Unlock()

	// First cycle immediately, then the periodic timer.
	go s.runCycles(timerCtx)
}

func (s *Scheduler) onSignOut() {
	ctx := s.lifecycleCtx()

	s.mu.Lock()
	s.cancelTimerLocked()
	s.state = StateUnauthenticated
	s.mu.Unlock()

	s.engine.SetOwner("")

	// Local data is retained so the device remains usable offline.
	if err := s.store.SetSetting(ctx, storage.SettingAuthStatus, storage.AuthStatusSkipped); err != nil {
		slog.Warn("failed to record auth status", "error", err)
	}
	slog.Info("signed out, sync stopped, local data retained")
}

func (s *Scheduler) enterUnauthenticated() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.state = StateUnauthenticated
	s.mu.Unlock()

	if err := s.store.SetSetting(s.lifecycleCtx(), storage.SettingAuthStatus, storage.AuthStatusSkipped); err != nil {
		slog.Warn("failed to record auth status", "error", err)
	}
}

func (s *Scheduler) runCycles(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.engine.Sync(ctx); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			slog.Debug("sync cycle skipped, one already in flight")
			return
		}
		slog.Warn("sync cycle failed", "error", err)
	}
}

func (s *Scheduler) lifecycleCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

// cancelTimerLocked cancels a pending timer. Callers hold s.mu.
func (s *Scheduler) cancelTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}
