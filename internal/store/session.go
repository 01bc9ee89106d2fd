package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"referral_console/internal/gateway"
	"referral_console/internal/model"
	"referral_console/internal/utils"
)

// Session states. Failed still allows a retry; Authenticated only leaves
// via an explicit logout.
const (
	StateAnonymous      = "anonymous"
	StateAuthenticating = "authenticating"
	StateAuthenticated  = "authenticated"
	StateFailed         = "failed"
)

var (
	ErrMissingCredentials = errors.New("please fill all required fields")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// CredentialStore is the persisted token+user pair the session survives
// restarts with.
type CredentialStore interface {
	Save(token string, user *model.User) error
	SaveUser(user *model.User) error
	Load() (token string, user *model.User, ok bool)
	Clear() error
}

// Session is a point-in-time copy of the session store's state
type Session struct {
	State           string
	IsAuthenticated bool
	Loading         bool
	User            *model.User
	Token           string
	Err             string
}

// SessionStore owns the authenticated identity for this console instance.
// It is the only component that talks to the gateway's credential
// endpoints and the only writer of the credential store.
type SessionStore struct {
	mu    sync.Mutex
	gw    gateway.Client
	creds CredentialStore
	log   *zap.Logger

	state   string
	user    *model.User
	token   string
	err     string
	loading bool

	onAuth   []func(context.Context, *model.User)
	onLogout []func()
}

// NewSessionStore creates an anonymous session backed by the gateway and
// the persisted credential store.
func NewSessionStore(gw gateway.Client, creds CredentialStore, log *zap.Logger) *SessionStore {
	return &SessionStore{
		gw:    gw,
		creds: creds,
		log:   log,
		state: StateAnonymous,
	}
}

// OnAuthenticated registers a callback fired after every successful login
// or restore. Register before the store is used; registration is not
// synchronized with logins.
func (s *SessionStore) OnAuthenticated(fn func(context.Context, *model.User)) {
	s.onAuth = append(s.onAuth, fn)
}

// OnLogout registers a callback fired after the session is cleared
func (s *SessionStore) OnLogout(fn func()) {
	s.onLogout = append(s.onLogout, fn)
}

// Login authenticates against the gateway. On success the credentials are
// persisted and the authenticated callbacks run; their failures are logged,
// never surfaced to the caller.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingCredentials
	}

	s.setState(StateAuthenticating, "")

	user, token, err := s.gw.Login(ctx, email, password)
	if err != nil {
		msg := failureMessage(err, "Login failed")
		s.setState(StateFailed, msg)
		s.log.Warn("login failed", zap.String("email", email), zap.Error(err))
		return err
	}

	normalizeUser(user, token)

	if err := s.creds.Save(token, user); err != nil {
		// Session still works for this run; it just won't survive a restart.
		s.log.Error("failed to persist credentials", zap.Error(err))
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.token = token
	s.err = ""
	callbacks := s.onAuth
	s.mu.Unlock()

	s.log.Info("session authenticated", zap.String("user_id", user.ID), zap.String("role", user.Role))
	for _, fn := range callbacks {
		fn(ctx, user)
	}
	return nil
}

// Register signs up a new account. It never authenticates the session;
// the caller has to log in afterwards.
func (s *SessionStore) Register(ctx context.Context, req model.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return ErrMissingCredentials
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	s.setState(StateAuthenticating, "")

	err := s.gw.Register(ctx, gateway.RegisterPayload{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		s.setState(StateFailed, failureMessage(err, "Registration failed"))
		return err
	}

	s.setState(StateAnonymous, "")
	s.log.Info("account registered", zap.String("email", req.Email))
	return nil
}

// Logout clears the persisted credentials and resets the session
// unconditionally. No gateway call is made.
func (s *SessionStore) Logout() {
	if err := s.creds.Clear(); err != nil {
		s.log.Error("failed to clear persisted credentials", zap.Error(err))
	}

	s.mu.Lock()
	s.state = StateAnonymous
	s.user = nil
	s.token = ""
	s.err = ""
	s.loading = false
	callbacks := s.onLogout
	s.mu.Unlock()

	s.log.Info("session cleared")
	for _, fn := range callbacks {
		fn()
	}
}

// UpdateProfile replaces the current user via the gateway, keeping the
// existing token. The session stays authenticated for the whole call;
// only the loading flag tracks the round-trip, so concurrent requests
// are never bounced to login by an in-flight update.
func (s *SessionStore) UpdateProfile(ctx context.Context, req model.ProfileUpdateRequest) error {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	token := s.token
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	updated, err := s.gw.UpdateProfile(ctx, token, req)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.err = failureMessage(err, "Profile update failed")
		s.mu.Unlock()
		return err
	}

	normalizeUser(updated, token)
	if err := s.creds.SaveUser(updated); err != nil {
		s.log.Error("failed to persist updated user", zap.Error(err))
	}

	s.mu.Lock()
	s.loading = false
	s.user = updated
	s.err = ""
	s.mu.Unlock()
	return nil
}

// Restore rebuilds the session from persisted credentials without a
// gateway round-trip. The token is trusted as-is; an expired or forged one
// surfaces on the first authenticated call. Missing id/role fields are
// backfilled from the token claims, then from defaults.
func (s *SessionStore) Restore() bool {
	token, user, ok := s.creds.Load()
	if !ok {
		return false
	}

	normalizeUser(user, token)

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.token = token
	s.err = ""
	s.mu.Unlock()

	s.log.Info("session restored", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return true
}

// Snapshot returns a copy of the session state
func (s *SessionStore) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Session{
		State:           s.state,
		IsAuthenticated: s.state == StateAuthenticated,
		Loading:         s.state == StateAuthenticating || s.loading,
		Token:           s.token,
		Err:             s.err,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// IsAuthenticated reports whether the session holds a user and token
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated
}

// CurrentUser returns a copy of the authenticated user, or nil
func (s *SessionStore) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token for gateway calls, empty when anonymous
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *SessionStore) setState(state, errMsg string) {
	s.mu.Lock()
	s.state = state
	s.err = errMsg
	s.mu.Unlock()
}

// normalizeUser backfills identifier and role on records the gateway or an
// old persisted blob left incomplete. Claims are only mined, never trusted
// for authorization; the gateway re-checks the role on every call.
func normalizeUser(user *model.User, token string) {
	if user.ID != "" && user.Role != "" {
		return
	}

	if claims, err := utils.PeekClaims(token); err == nil {
		if user.ID == "" {
			user.ID = claims.UserID
		}
		if user.Role == "" && validRole(claims.Role) {
			user.Role = claims.Role
		}
	}

	if user.ID == "" {
		user.ID = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
}

func validRole(role string) bool {
	return role == model.RoleUser || role == model.RoleAdmin
}

// failureMessage prefers the gateway's human-readable message, falling
// back to a generic one for transport-level failures.
func failureMessage(err error, fallback string) string {
	var gerr *gateway.GatewayError
	if errors.As(err, &gerr) && gerr.StatusCode != 0 {
		return gerr.Message
	}
	return fallback
}
