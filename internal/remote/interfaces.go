// Package remote provides the client for the multi-device record service.
// The core treats the service as an opaque dependency behind push and pull;
// it never implements server-side behavior.
package remote

import (
	"context"
	"encoding/json"

	"github.com/florinapp/florin/internal/model"
)

// User is the authenticated account a device's records belong to.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsProUser   bool   `json:"is_pro_user"`
}

// AuthEvent is an authentication-state transition reported by the service.
type AuthEvent string

const (
	// AuthSignedIn fires when a session is established or restored.
	AuthSignedIn AuthEvent = "signed_in"
	// AuthSignedOut fires on explicit sign-out or session expiry.
	AuthSignedOut AuthEvent = "signed_out"
)

// Record is the wire envelope for one entity. Fields carries the entity's
// JSON body unchanged; the service stores it opaquely, keyed by (id, owner).
type Record struct {
	Owner  string          `json:"owner"`
	Fields json.RawMessage `json:"fields"`
	ID     int64           `json:"id"`
}

// Service defines the contract for the remote record service. Upsert is
// idempotent on the (id, owner) conflict key: repeated upserts of an
// unchanged record are server-side no-ops.
type Service interface {
	Upsert(ctx context.Context, collection model.Kind, rec Record) error
	SelectAll(ctx context.Context, collection model.Kind, owner string) ([]Record, error)

	// CurrentUser returns the authenticated user, or nil when the session is
	// absent or expired. Transport failures return ErrNetwork.
	CurrentUser(ctx context.Context) (*User, error)

	// OnAuthStateChange registers a callback for auth transitions and
	// returns an unsubscribe function.
	OnAuthStateChange(fn func(AuthEvent, *User)) func()
}
