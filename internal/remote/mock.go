package remote

import (
	"context"
	"sync"

	"github.com/florinapp/florin/internal/model"
)

// MockService is an in-memory implementation of Service for testing.
type MockService struct {
	// Functions that can be set by tests to control behavior
	UpsertFn      func(ctx context.Context, collection model.Kind, rec Record) error
	SelectAllFn   func(ctx context.Context, collection model.Kind, owner string) ([]Record, error)
	CurrentUserFn func(ctx context.Context) (*User, error)

	records map[model.Kind]map[recordKey]Record
	user    *User

	// Call tracking
	UpsertCalls    []UpsertCall
	SelectAllCalls int

	mu sync.Mutex
	authNotifier
}

// UpsertCall records the parameters of an Upsert call.
type UpsertCall struct {
	Collection model.Kind
	Record     Record
}

type recordKey struct {
	owner string
	id    int64
}

// NewMockService creates an empty mock record service.
func NewMockService() *MockService {
	return &MockService{
		records: make(map[model.Kind]map[recordKey]Record),
	}
}

// Upsert implements Service. The default behavior stores the record keyed by
// (id, owner), so repeated upserts of the same record are no-ops.
func (m *MockService) Upsert(ctx context.Context, collection model.Kind, rec Record) error {
	m.mu.Lock()
	m.UpsertCalls = append(m.UpsertCalls, UpsertCall{Collection: collection, Record: rec})
	m.mu.Unlock()

	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, collection, rec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[collection] == nil {
		m.records[collection] = make(map[recordKey]Record)
	}
	m.records[collection][recordKey{owner: rec.Owner, id: rec.ID}] = rec
	return nil
}

// SelectAll implements Service.
func (m *MockService) SelectAll(ctx context.Context, collection model.Kind, owner string) ([]Record, error) {
	m.mu.Lock()
	m.SelectAllCalls++
	m.mu.Unlock()

	if m.SelectAllFn != nil {
		return m.SelectAllFn(ctx, collection, owner)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for key, rec := range m.records[collection] {
		if key.owner == owner {
			out = append(out, rec)
		}
	}
	return out, nil
}

// CurrentUser implements Service.
func (m *MockService) CurrentUser(ctx context.Context) (*User, error) {
	if m.CurrentUserFn != nil {
		return m.CurrentUserFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, nil
}

// OnAuthStateChange implements Service.
func (m *MockService) OnAuthStateChange(fn func(AuthEvent, *User)) func() {
	return m.subscribe(fn)
}

// SignIn establishes a session for user and fires the auth event.
func (m *MockService) SignIn(user User) {
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	m.emit(AuthSignedIn, &user)
}

// SignOut drops the session and fires the auth event.
func (m *MockService) SignOut() {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.emit(AuthSignedOut, nil)
}

// RecordCount returns how many records a collection holds for an owner.
func (m *MockService) RecordCount(collection model.Kind, owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.records[collection] {
		if key.owner == owner {
			n++
		}
	}
	return n
}

// Reset clears stored records and call tracking.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[model.Kind]map[recordKey]Record)
	m.UpsertCalls = nil
	m.SelectAllCalls = 0
}

// Ensure MockService implements the Service interface.
var _ Service = (*MockService)(nil)
