package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smarteletron/eletron/pkg/domain"
)

// Storage keys. Both are written together on login and removed together.
const (
	TokenKey   = "auth_token"
	ProfileKey = "user_profile"
)

// DefaultCheckInterval is how often the watch re-checks expiry.
const DefaultCheckInterval = 60 * time.Second

// Reason says why a session ended.
type Reason string

const (
	LogoutUser         Reason = "user"
	LogoutExpired      Reason = "expired"
	LogoutUnauthorized Reason = "unauthorized"
	LogoutStorage      Reason = "storage"
)

// User is the identity attached to a session.
type User struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodec replaces the JWT codec.
func WithCodec(c Codec) Option {
	return func(m *Manager) { m.codec = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCheckInterval replaces the 60s expiry re-check interval.
func WithCheckInterval(d time.Duration) Option {
	return func(m *Manager) { m.interval = d }
}

// WithLogger sets the logger used for storage and expiry events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithOnLogout registers fn to be called after every transition from
// authenticated to logged out. fn runs without the Manager's lock held and may
// run on the watch goroutine.
func WithOnLogout(fn func(Reason)) Option {
	return func(m *Manager) { m.onLogout = fn }
}

// Manager owns who is logged in and with what rights, persists it to a Store
// and logs the user out when the token expires.
type Manager struct {
	store    Store
	codec    Codec
	now      func() time.Time
	interval time.Duration
	log      zerolog.Logger
	onLogout func(Reason)

	mu        sync.Mutex
	token     string
	user      *User
	expiresAt time.Time
	stopWatch chan struct{}
}

// NewManager creates a logged-out Manager. Call Restore to rehydrate.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		codec:    JWTCodec{},
		now:      time.Now,
		interval: DefaultCheckInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login stores the session carried by a successful login response. It fails
// closed: a token that cannot be decoded, is already expired, or cannot be
// persisted leaves the Manager logged out.
func (m *Manager) Login(resp domain.LoginResponse) error {
	exp, err := m.codec.Expiry(resp.Token)
	if err != nil {
		m.log.Error().Err(err).Str("username", resp.Username).Msg("login token rejected")
		m.Logout(LogoutStorage)
		return fmt.Errorf("session.Login: %w", err)
	}
	if !m.now().Before(exp) {
		m.log.Warn().Str("username", resp.Username).Time("expires_at", exp).Msg("login token already expired")
		m.Logout(LogoutExpired)
		return fmt.Errorf("session.Login: %w", ErrTokenExpired)
	}

	user := &User{
		Username:    resp.Username,
		DisplayName: resp.Name,
		Roles:       slices.Clone(resp.Roles),
		Permissions: slices.Clone(resp.Permissions),
	}
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session.Login: marshal profile: %w", err)
	}
	m.mu.Lock()
	if err := m.persist(resp.Token, string(profile)); err != nil {
		m.mu.Unlock()
		m.log.Error().Err(err).Msg("persist session failed")
		m.Logout(LogoutStorage)
		return fmt.Errorf("session.Login: %w", err)
	}
	m.token = resp.Token
	m.user = user
	m.expiresAt = exp
	m.startWatchLocked()
	m.mu.Unlock()

	m.log.Info().Str("username", user.Username).Time("expires_at", exp).Msg("logged in")
	return nil
}

func (m *Manager) persist(token, profile string) error {
	if err := m.store.Set(TokenKey, token); err != nil {
		return err
	}
	return m.store.Set(ProfileKey, profile)
}

// Restore rehydrates the session from the Store. Absent, malformed or expired
// credentials and unreadable profiles leave the Manager logged out with the
// Store cleared. It reports whether a session was restored.
func (m *Manager) Restore() bool {
	m.mu.Lock()
	token, user, exp, err := m.readStored()
	if err != nil {
		m.clear()
		m.mu.Unlock()
		if !errors.Is(err, ErrNotFound) {
			m.log.Warn().Err(err).Msg("discarding stored session")
		}
		return false
	}
	m.token = token
	m.user = user
	m.expiresAt = exp
	m.startWatchLocked()
	m.mu.Unlock()

	m.log.Info().Str("username", user.Username).Time("expires_at", exp).Msg("session restored")
	return true
}

func (m *Manager) readStored() (string, *User, time.Time, error) {
	token, err := m.store.Get(TokenKey)
	if err != nil {
		return "", nil, time.Time{}, err
	}
	exp, err := m.codec.Expiry(token)
	if err != nil {
		return "", nil, time.Time{}, err
	}
	if !m.now().Before(exp) {
		return "", nil, time.Time{}, ErrTokenExpired
	}
	raw, err := m.store.Get(ProfileKey)
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("read profile: %w", err)
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil, time.Time{}, fmt.Errorf("decode profile: %w", err)
	}
	if user.Username == "" {
		return "", nil, time.Time{}, errors.New("decode profile: empty username")
	}
	return token, &user, exp, nil
}

// Logout clears the session from memory and storage. It is safe to call when
// already logged out; OnLogout only fires if a session was actually ended.
func (m *Manager) Logout(reason Reason) {
	m.end(reason, "")
}

// end logs out. A non-empty onlyToken restricts it to that token, so a stale
// watch cannot end a session that replaced it.
func (m *Manager) end(reason Reason, onlyToken string) {
	m.mu.Lock()
	if onlyToken != "" && m.token != onlyToken {
		m.mu.Unlock()
		return
	}
	wasAuthenticated := m.token != ""
	m.token = ""
	m.user = nil
	m.expiresAt = time.Time{}
	m.stopWatchLocked()
	m.clear()
	m.mu.Unlock()

	if wasAuthenticated {
		m.log.Info().Str("reason", string(reason)).Msg("logged out")
		if m.onLogout != nil {
			m.onLogout(reason)
		}
	}
}

func (m *Manager) clear() {
	for _, key := range []string{TokenKey, ProfileKey} {
		if err := m.store.Remove(key); err != nil {
			m.log.Error().Err(err).Str("key", key).Msg("remove stored session key")
		}
	}
}

// Close stops the expiry watch without ending the session, for shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopWatchLocked()
}

// IsAuthenticated is recomputed against the clock on every call.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && m.now().Before(m.expiresAt)
}

// Token returns the bearer token, or "" when logged out or expired.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || !m.now().Before(m.expiresAt) {
		return ""
	}
	return m.token
}

// ExpiresAt returns the current token's expiration instant.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt, m.token != ""
}

// User returns a copy of the logged-in user.
func (m *Manager) User() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, false
	}
	u := *m.user
	u.Roles = slices.Clone(u.Roles)
	u.Permissions = slices.Clone(u.Permissions)
	return u, true
}

// HasPermission reports whether the current user holds name. False when nobody is logged in.
func (m *Manager) HasPermission(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && slices.Contains(m.user.Permissions, name)
}

// HasRole reports whether the current user holds role.
func (m *Manager) HasRole(role string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && slices.Contains(m.user.Roles, role)
}

// startWatchLocked replaces any running watch with one for the current token.
func (m *Manager) startWatchLocked() {
	m.stopWatchLocked()
	if m.token == "" {
		return
	}
	stop := make(chan struct{})
	m.stopWatch = stop
	go m.watch(stop, m.token, m.expiresAt)
}

func (m *Manager) stopWatchLocked() {
	if m.stopWatch != nil {
		close(m.stopWatch)
		m.stopWatch = nil
	}
}

// watch re-checks expiry every interval and fires a one-shot logout at the
// expiration instant. A past instant fires immediately.
func (m *Manager) watch(stop <-chan struct{}, token string, expiresAt time.Time) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(max(expiresAt.Sub(m.now()), 0))
	defer deadline.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.now().Before(expiresAt) {
				continue
			}
			m.expire(token)
			return
		case <-deadline.C:
			m.expire(token)
			return
		}
	}
}

// expire logs out only if token is still the current one.
func (m *Manager) expire(token string) {
	m.log.Debug().Msg("session token expired")
	m.end(LogoutExpired, token)
}
