// Package session turns the identity provider's auth-state stream into the
// console's session stream and owns the login, register and logout flows.
//
// Every sign-in observed on the stream writes the user's profile to the data
// service before the session is published. The write is best effort: its
// failure is logged and never changes what subscribers see.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/client/dataconnect"
	"github.com/dmitrijs2005/restaurant/internal/client/identity"
	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/stream"
)

// AnonymousUsername stands in for users whose email has no local part.
const AnonymousUsername = "anon"

// Session is the console's view of the auth state. The zero value is the
// signed-out session.
type Session struct {
	Identity *identity.Identity
	Username string
}

func (s Session) Authenticated() bool { return s.Identity != nil }

// ProfileWriter stores user profiles. dataconnect.Client implements it.
type ProfileWriter interface {
	UpsertUser(ctx context.Context, p dataconnect.UserProfile) (string, error)
}

// DeriveUsername returns the part of email before '@', or AnonymousUsername
// when that part is empty.
func DeriveUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return AnonymousUsername
	}
	return local
}

// Monitor is the process-wide session service. Construct it once, call Start
// and release it with Close.
type Monitor struct {
	provider identity.Provider
	profiles ProfileWriter
	logger   logging.Logger

	state *stream.Subject[Session]

	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewMonitor(p identity.Provider, profiles ProfileWriter, l logging.Logger) *Monitor {
	return &Monitor{
		provider: p,
		profiles: profiles,
		logger:   l.With("module", "session"),
		state:    stream.NewSubject[Session](),
	}
}

// Start subscribes to the provider's auth-state stream. Later calls are
// no-ops.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		upstream := m.provider.Watch()

		m.mu.Lock()
		m.cancel = cancel
		m.done = make(chan struct{})
		m.mu.Unlock()

		go m.run(ctx, upstream)
	})
}

func (m *Monitor) run(ctx context.Context, upstream *stream.Subscription[*identity.Identity]) {
	defer close(m.done)
	defer upstream.Close()

	for {
		select {
		case ev, ok := <-upstream.C():
			if !ok {
				m.state.Complete()
				return
			}
			if ev.Err != nil {
				m.logger.Error(ctx, "auth state stream failed", "error", ev.Err)
				m.state.Error(ev.Err)
				return
			}
			s, ok := m.project(ctx, ev.Value)
			if !ok {
				return
			}
			m.state.Next(s)
		case <-ctx.Done():
			return
		}
	}
}

// project maps one upstream emission to a session. For a signed-in user the
// profile write settles first. It reports false when the monitor is closing.
func (m *Monitor) project(ctx context.Context, id *identity.Identity) (Session, bool) {
	if id == nil {
		return Session{}, true
	}
	username := DeriveUsername(id.Email)
	m.upsertProfile(ctx, id, username)
	if ctx.Err() != nil {
		return Session{}, false
	}
	return Session{Identity: id, Username: username}, true
}

func (m *Monitor) upsertProfile(ctx context.Context, id *identity.Identity, username string) {
	var email *string
	if id.Email != "" {
		e := id.Email
		email = &e
	}
	_, err := m.profiles.UpsertUser(ctx, dataconnect.UserProfile{
		Username: username,
		RoleID:   common.DefaultRoleID,
		Email:    email,
	})
	if err != nil {
		m.logger.Warn(ctx, "profile upsert failed", "uid", id.UID, "error", err)
		return
	}
	m.logger.Debug(ctx, "profile upserted", "uid", id.UID, "username", username)
}

// Subscribe returns a subscription that starts with the current session, if
// one has been published. A provider failure arrives as a terminal error.
func (m *Monitor) Subscribe() *stream.Subscription[Session] {
	return m.state.Subscribe()
}

// Current returns the last published session: the signed-out session before
// the first emission and after a provider failure.
func (m *Monitor) Current() Session {
	s, _ := m.state.Value()
	return s
}

// Login switches the provider to durable persistence and signs in.
func (m *Monitor) Login(ctx context.Context, email, password string) (*identity.Identity, error) {
	if err := m.provider.SetPersistence(ctx, identity.PersistenceLocal); err != nil {
		m.logger.Warn(ctx, "could not enable session persistence", "error", err)
	}
	id, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, mapSignInError(err)
	}
	return id, nil
}

// Register creates the account, using username as the display name, and
// writes the profile. A failed profile write does not fail registration.
func (m *Monitor) Register(ctx context.Context, email, password, username string) (*identity.Identity, error) {
	id, err := m.provider.SignUp(ctx, email, password, username)
	if err != nil {
		return nil, mapSignUpError(err)
	}
	m.upsertProfile(ctx, id, DeriveUsername(id.Email))
	return id, nil
}

func (m *Monitor) Logout(ctx context.Context) error {
	return m.provider.SignOut(ctx)
}

// IsAuthenticated is a snapshot of the provider's current user. Gates must
// use Subscribe instead.
func (m *Monitor) IsAuthenticated() bool {
	return m.provider.CurrentUser() != nil
}

// Close stops the upstream pump and completes every subscription.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		cancel, done := m.cancel, m.done
		m.mu.Unlock()
		if cancel != nil {
			cancel()
			<-done
		}
		m.state.Complete()
	})
}
