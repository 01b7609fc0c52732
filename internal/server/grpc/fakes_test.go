package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/server/changefeed"
	"github.com/dmitrijs2005/restaurant/internal/server/metrics"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/dmitrijs2005/restaurant/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeIdentity accepts the password "secret" for any email and issues the
// access token "access-<email>". Access tokens "expired" and "garbage" fail
// authentication.
type fakeIdentity struct {
	signUpErr error
	signedOut []string
}

func (f *fakeIdentity) session(email string) *services.Session {
	return &services.Session{
		Account: &models.Account{ID: "uid-" + email, Email: email, DisplayName: "Chef"},
		Tokens:  &services.TokenPair{AccessToken: "access-" + email, RefreshToken: "refresh-" + email},
	}
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password, _ string) (*services.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	if len(password) < services.MinPasswordLength {
		return nil, services.ErrWeakPassword
	}
	return f.session(email), nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*services.Session, error) {
	if password != "secret" {
		return nil, services.ErrWrongPassword
	}
	return f.session(email), nil
}

func (f *fakeIdentity) Refresh(_ context.Context, refreshToken string) (*services.Session, error) {
	if refreshToken == "stale" {
		return nil, common.ErrRefreshTokenExpired
	}
	return f.session("refreshed@example.com"), nil
}

func (f *fakeIdentity) SignOut(_ context.Context, refreshToken string) error {
	f.signedOut = append(f.signedOut, refreshToken)
	return nil
}

func (f *fakeIdentity) Authenticate(accessToken string) (string, error) {
	switch accessToken {
	case "expired":
		return "", common.ErrTokenExpired
	case "garbage":
		return "", common.ErrInvalidToken
	}
	return "uid-" + accessToken, nil
}

// fakeData keeps each collection as a slice of raw records.
type fakeData struct {
	mu      sync.Mutex
	records map[string][]json.RawMessage
	users   map[string]models.User
	listErr error
	feed    *changefeed.Memory
}

func newFakeData() *fakeData {
	return &fakeData{
		records: make(map[string][]json.RawMessage),
		users:   make(map[string]models.User),
		feed:    changefeed.NewMemory(),
	}
}

func (f *fakeData) UpsertUser(_ context.Context, uid string, profile models.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile.ID = uid
	f.users[uid] = profile
	return uid, nil
}

func (f *fakeData) Create(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	return f.write(ctx, collection, record)
}

func (f *fakeData) Upsert(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	return f.write(ctx, collection, record)
}

func (f *fakeData) write(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	switch collection {
	case "customers", "recipes":
	case "users", "orders":
		return "", services.ErrReadOnlyOperation
	default:
		return "", services.ErrUnknownCollection
	}

	var probe struct {
		FirstName string `json:"firstName"`
	}
	_ = json.Unmarshal(record, &probe)
	if collection == "customers" && probe.FirstName == "" {
		return "", fmt.Errorf("%w: FirstName required", common.ErrorValidation)
	}

	f.mu.Lock()
	f.records[collection] = append(f.records[collection], record)
	f.mu.Unlock()

	_ = f.feed.Publish(ctx, collection)
	return "new-id", nil
}

func (f *fakeData) List(_ context.Context, collection string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := f.records[collection]
	if items == nil {
		items = []json.RawMessage{}
	}
	return append([]json.RawMessage(nil), items...), nil
}

func (f *fakeData) Subscribe(collection string) (*changefeed.Subscription, error) {
	return f.feed.Subscribe(collection), nil
}

func newTestServer() (*GRPCServer, *fakeIdentity, *fakeData) {
	identity := &fakeIdentity{}
	data := newFakeData()
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, identity, data, metrics.New()), identity, data
}
