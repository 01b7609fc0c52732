package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/identity"
	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"github.com/dmitrijs2005/restaurant/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	auth *stream.Subject[*identity.Identity]

	mu          sync.Mutex
	calls       []string
	current     *identity.Identity
	persistence identity.Persistence

	SignInOut      *identity.Identity
	SignInErr      error
	SignUpOut      *identity.Identity
	SignUpErr      error
	SignUpName     string
	SignOutErr     error
	PersistenceErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{auth: stream.NewSubject[*identity.Identity]()}
}

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) SignUp(_ context.Context, _, _, displayName string) (*identity.Identity, error) {
	f.record("SignUp")
	f.SignUpName = displayName
	return f.SignUpOut, f.SignUpErr
}

func (f *fakeProvider) SignIn(_ context.Context, _, _ string) (*identity.Identity, error) {
	f.record("SignIn")
	return f.SignInOut, f.SignInErr
}

func (f *fakeProvider) SignOut(_ context.Context) error {
	f.record("SignOut")
	return f.SignOutErr
}

func (f *fakeProvider) SetPersistence(_ context.Context, mode identity.Persistence) error {
	f.record("SetPersistence")
	f.persistence = mode
	return f.PersistenceErr
}

func (f *fakeProvider) CurrentUser() *identity.Identity { return f.current }

func (f *fakeProvider) Watch() *stream.Subscription[*identity.Identity] { return f.auth.Subscribe() }

type fakeProfiles struct {
	mu       sync.Mutex
	profiles []dataconnect.UserProfile
	err      error
	release  chan struct{}
	entered  chan struct{}
}

func (f *fakeProfiles) UpsertUser(ctx context.Context, p dataconnect.UserProfile) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = append(f.profiles, p)
	return "uid", f.err
}

func (f *fakeProfiles) Profiles() []dataconnect.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dataconnect.UserProfile(nil), f.profiles...)
}

func next(t *testing.T, sub *stream.Subscription[Session]) stream.Event[Session] {
	t.Helper()
	select {
	case ev, ok := <-sub.C():
		require.True(t, ok, "session stream closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no session emitted")
	}
	return stream.Event[Session]{}
}

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"chef@example.com", "chef"},
		{"", AnonymousUsername},
		{"@example.com", AnonymousUsername},
		{"nodomain", "nodomain"},
		{"a@b@c", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveUsername(tt.email))
		})
	}
}

func TestMonitor_EmitsOneSessionPerUpstreamEmission(t *testing.T) {
	for _, upsertErr := range []error{nil, errors.New("backend down")} {
		p := newFakeProvider()
		profiles := &fakeProfiles{err: upsertErr}
		m := NewMonitor(p, profiles, logging.Discard())
		m.Start(context.Background())
		sub := m.Subscribe()

		userA := &identity.Identity{UID: "a", Email: "alice@example.com"}
		userB := &identity.Identity{UID: "b"}
		for _, id := range []*identity.Identity{nil, userA, nil, userB} {
			p.auth.Next(id)
		}

		assert.False(t, next(t, sub).Value.Authenticated())
		a := next(t, sub).Value
		assert.Same(t, userA, a.Identity)
		assert.Equal(t, "alice", a.Username)
		assert.False(t, next(t, sub).Value.Authenticated())
		b := next(t, sub).Value
		assert.Same(t, userB, b.Identity)
		assert.Equal(t, AnonymousUsername, b.Username)

		email := "alice@example.com"
		assert.Equal(t, []dataconnect.UserProfile{
			{Username: "alice", RoleID: common.DefaultRoleID, Email: &email},
			{Username: AnonymousUsername, RoleID: common.DefaultRoleID},
		}, profiles.Profiles())

		sub.Close()
		m.Close()
	}
}

func TestMonitor_UpsertSettlesBeforeEmission(t *testing.T) {
	p := newFakeProvider()
	profiles := &fakeProfiles{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	m := NewMonitor(p, profiles, logging.Discard())
	m.Start(context.Background())
	defer m.Close()
	sub := m.Subscribe()
	defer sub.Close()

	p.auth.Next(&identity.Identity{UID: "a", Email: "a@x.io"})
	<-profiles.entered

	select {
	case <-sub.C():
		t.Fatal("session emitted before the profile upsert settled")
	case <-time.After(50 * time.Millisecond):
	}

	close(profiles.release)
	assert.True(t, next(t, sub).Value.Authenticated())
	assert.Len(t, profiles.Profiles(), 1)
}

func TestMonitor_ReplaysCurrentSession(t *testing.T) {
	p := newFakeProvider()
	m := NewMonitor(p, &fakeProfiles{}, logging.Discard())
	m.Start(context.Background())
	defer m.Close()

	first := m.Subscribe()
	p.auth.Next(&identity.Identity{UID: "a", Email: "a@x.io"})
	next(t, first)
	first.Close()

	late := m.Subscribe()
	defer late.Close()
	assert.Equal(t, "a", next(t, late).Value.Identity.UID)
}

func TestMonitor_Current(t *testing.T) {
	p := newFakeProvider()
	m := NewMonitor(p, &fakeProfiles{}, logging.Discard())
	assert.False(t, m.Current().Authenticated())

	m.Start(context.Background())
	defer m.Close()
	sub := m.Subscribe()
	defer sub.Close()

	p.auth.Next(&identity.Identity{UID: "a", Email: "chef@example.com"})
	next(t, sub)
	cur := m.Current()
	assert.Equal(t, "a", cur.Identity.UID)
	assert.Equal(t, "chef", cur.Username)
}

func TestMonitor_PropagatesProviderError(t *testing.T) {
	p := newFakeProvider()
	profiles := &fakeProfiles{}
	m := NewMonitor(p, profiles, logging.Discard())
	m.Start(context.Background())
	defer m.Close()
	sub := m.Subscribe()

	boom := errors.New("provider failure")
	p.auth.Error(boom)

	ev := next(t, sub)
	assert.ErrorIs(t, ev.Err, boom)
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Empty(t, profiles.Profiles())
}

func TestMonitor_CloseCompletesSubscribers(t *testing.T) {
	p := newFakeProvider()
	m := NewMonitor(p, &fakeProfiles{}, logging.Discard())
	m.Start(context.Background())
	sub := m.Subscribe()

	m.Close()
	m.Close()

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not completed")
	}
}

func TestMonitor_CloseWithoutStart(t *testing.T) {
	m := NewMonitor(newFakeProvider(), &fakeProfiles{}, logging.Discard())
	m.Close()
	_, err := stream.First(context.Background(), m.Subscribe())
	assert.ErrorIs(t, err, stream.ErrCompleted)
}

func TestMonitor_Login(t *testing.T) {
	user := &identity.Identity{UID: "a", Email: "a@x.io"}

	t.Run("sets local persistence before signing in", func(t *testing.T) {
		p := newFakeProvider()
		p.SignInOut = user
		m := NewMonitor(p, &fakeProfiles{}, logging.Discard())

		id, err := m.Login(context.Background(), "a@x.io", "secret1")
		require.NoError(t, err)
		assert.Same(t, user, id)
		assert.Equal(t, []string{"SetPersistence", "SignIn"}, p.Calls())
		assert.Equal(t, identity.PersistenceLocal, p.persistence)
	})

	t.Run("persistence failure does not block sign in", func(t *testing.T) {
		p := newFakeProvider()
		p.SignInOut = user
		p.PersistenceErr = errors.New("disk full")
		m := NewMonitor(p, &fakeProfiles{}, logging.Discard())

		_, err := m.Login(context.Background(), "a@x.io", "secret1")
		assert.NoError(t, err)
	})

	cases := []struct {
		err  error
		kind error
	}{
		{&identity.ProviderError{Code: rpc.CodeUserNotFound}, ErrInvalidCredentials},
		{&identity.ProviderError{Code: rpc.CodeWrongPassword}, ErrInvalidCredentials},
		{&identity.ProviderError{Code: rpc.CodeTooManyRequests}, ErrTooManyAttempts},
		{&identity.ProviderError{Code: rpc.CodeEmailInUse}, ErrUnknown},
		{errors.New("connection refused"), ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			p := newFakeProvider()
			p.SignInErr = tc.err
			m := NewMonitor(p, &fakeProfiles{}, logging.Discard())

			id, err := m.Login(context.Background(), "a@x.io", "secret1")
			assert.Nil(t, id)
			assert.ErrorIs(t, err, tc.kind)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestMonitor_Register(t *testing.T) {
	t.Run("writes profile and passes username as display name", func(t *testing.T) {
		p := newFakeProvider()
		p.SignUpOut = &identity.Identity{UID: "n", Email: "new@x.io"}
		profiles := &fakeProfiles{}
		m := NewMonitor(p, profiles, logging.Discard())

		id, err := m.Register(context.Background(), "new@x.io", "secret1", "Newbie")
		require.NoError(t, err)
		assert.Equal(t, "n", id.UID)
		assert.Equal(t, "Newbie", p.SignUpName)
		require.Len(t, profiles.Profiles(), 1)
		assert.Equal(t, "new", profiles.Profiles()[0].Username)
	})

	t.Run("profile failure is swallowed", func(t *testing.T) {
		p := newFakeProvider()
		p.SignUpOut = &identity.Identity{UID: "n", Email: "new@x.io"}
		m := NewMonitor(p, &fakeProfiles{err: errors.New("boom")}, logging.Discard())

		_, err := m.Register(context.Background(), "new@x.io", "secret1", "Newbie")
		assert.NoError(t, err)
	})

	cases := []struct {
		code string
		kind error
	}{
		{rpc.CodeEmailInUse, ErrEmailInUse},
		{rpc.CodeWeakPassword, ErrWeakPassword},
		{rpc.CodeInvalidEmail, ErrInvalidEmail},
		{rpc.CodeWrongPassword, ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			p := newFakeProvider()
			p.SignUpErr = &identity.ProviderError{Code: tc.code}
			profiles := &fakeProfiles{}
			m := NewMonitor(p, profiles, logging.Discard())

			_, err := m.Register(context.Background(), "new@x.io", "secret1", "Newbie")
			assert.ErrorIs(t, err, tc.kind)
			assert.Empty(t, profiles.Profiles())
		})
	}
}

func TestMonitor_LogoutAndSnapshot(t *testing.T) {
	p := newFakeProvider()
	m := NewMonitor(p, &fakeProfiles{}, logging.Discard())
	assert.False(t, m.IsAuthenticated())

	p.current = &identity.Identity{UID: "a"}
	assert.True(t, m.IsAuthenticated())

	p.SignOutErr = errors.New("offline")
	assert.ErrorIs(t, m.Logout(context.Background()), p.SignOutErr)
	assert.Equal(t, []string{"SignOut"}, p.Calls())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Invalid email or password", Message(&AuthError{Kind: ErrInvalidCredentials}))
	assert.Equal(t, "Too many failed login attempts. Please try again later", Message(&AuthError{Kind: ErrTooManyAttempts}))
	assert.Equal(t, "This email is already in use", Message(&AuthError{Kind: ErrEmailInUse}))
	assert.Equal(t, "Password is too weak", Message(&AuthError{Kind: ErrWeakPassword}))
	assert.Equal(t, "Invalid email address", Message(&AuthError{Kind: ErrInvalidEmail}))
	assert.Equal(t, "An error occurred. Please try again", Message(&AuthError{Kind: ErrUnknown}))
	assert.Equal(t, "An error occurred. Please try again", Message(errors.New("x")))
}
