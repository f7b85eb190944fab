package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/yomnaalset/elibrary-go-client/credentials"
	clienterrors "github.com/yomnaalset/elibrary-go-client/internal/errors"
	"github.com/yomnaalset/elibrary-go-client/internal/metrics"
	"github.com/yomnaalset/elibrary-go-client/internal/utils"
	"github.com/yomnaalset/elibrary-go-client/token"
	"github.com/yomnaalset/elibrary-go-client/transport"
	"github.com/yomnaalset/elibrary-go-client/users"
)

// Config is the subset of configuration the manager needs.
type Config interface {
	GetRestoreTimeout() time.Duration
	GetRefreshRetries() int
	GetRefreshBackoffStep() time.Duration
	GetRefreshMargin() time.Duration
	GetShortLifetimeDelay() time.Duration
}

// Deps holds the collaborator dependencies for the Manager.
type Deps struct {
	Store     credentials.Store // Durable credential persistence
	Transport Transport         // Backend auth endpoints
}

// Manager owns the process-wide session: current user, token pair, refresh
// scheduling and credential persistence. It is the single writer of the
// credential store for the lifetime of the session. All state transitions
// notify subscribers after the mutation completes.
type Manager struct {
	deps      Deps
	cfg       Config
	logger    zerolog.Logger
	collector *metrics.Collector
	scheduler Scheduler
	sleep     func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	state        State
	accessToken  string
	refreshToken string
	user         *users.Profile
	refreshing   bool
	timer        TimerHandle

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithScheduler overrides the timer scheduler (primarily for testing).
func WithScheduler(s Scheduler) ManagerOption {
	return func(m *Manager) {
		m.scheduler = s
	}
}

// WithSleepFunc overrides the backoff sleep between refresh attempts
// (primarily for testing).
func WithSleepFunc(sleep func(ctx context.Context, d time.Duration) error) ManagerOption {
	return func(m *Manager) {
		m.sleep = sleep
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) ManagerOption {
	return func(m *Manager) {
		m.collector = c
	}
}

// NewManager initializes a Manager with required dependencies. Optional
// configuration can be provided via options.
func NewManager(deps Deps, cfg Config, logger zerolog.Logger, options ...ManagerOption) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("[NewManager] Store is required")
	}
	if deps.Transport == nil {
		return nil, errors.New("[NewManager] Transport is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewManager] Config is required")
	}

	manager := &Manager{
		deps:        deps,
		cfg:         cfg,
		logger:      logger.With().Str("component", "session").Logger(),
		collector:   metrics.Nop(),
		scheduler:   NewTimerScheduler(),
		sleep:       sleepWithContext,
		state:       StateUnauthenticated,
		subscribers: make(map[int]func(Snapshot)),
	}

	for _, opt := range options {
		opt(manager)
	}

	return manager, nil
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Token returns the current access token, or the empty string when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

// IsAuthenticated reports whether a non-empty access token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken != ""
}

// UserRole returns the cached profile's role tag for route guarding.
func (m *Manager) UserRole() users.RoleType {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ""
	}
	return m.user.Role
}

// Subscribe registers a listener for session snapshots and returns its
// unsubscribe function. Listeners are invoked synchronously after each
// state transition.
func (m *Manager) Subscribe(listener func(Snapshot)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = listener
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subscribers, id)
		m.subMu.Unlock()
	}
}

// Restore replays the persisted credentials into a live session at startup.
// A missing or expired credential set is not an error: the session simply
// ends up unauthenticated and the caller routes to login. Restoration is
// bounded by the configured restore timeout.
func (m *Manager) Restore(ctx context.Context) error {
	defer m.recoverPanic("restore")

	ctx, cancel := context.WithTimeout(ctx, m.cfg.GetRestoreTimeout())
	defer cancel()

	m.mu.Lock()
	m.state = StateRestoring
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	creds, err := m.deps.Store.Load()
	if err != nil {
		m.logger.Warn().Err(err).Msg("credential store unreadable, starting unauthenticated")
		m.collector.RecordRestore("store_error")
		m.clearSession()
		return nil
	}

	if creds.AccessToken == "" || creds.Profile == nil {
		m.collector.RecordRestore("no_credentials")
		m.mu.Lock()
		m.state = StateUnauthenticated
		snap = m.snapshotLocked()
		m.mu.Unlock()
		m.notify(snap)
		return nil
	}

	if !token.IsExpired(creds.AccessToken) {
		m.mu.Lock()
		m.accessToken = creds.AccessToken
		m.refreshToken = creds.RefreshToken
		m.user = creds.Profile
		m.state = StateAuthenticated
		m.scheduleProactiveLocked(creds.AccessToken)
		snap = m.snapshotLocked()
		m.mu.Unlock()
		m.notify(snap)
		m.collector.RecordRestore("restored")

		// Advisory check that the backend still honors the token. Detached:
		// it must never delay the authenticated transition.
		go m.verifyProfile(context.WithoutCancel(ctx), creds.AccessToken)
		return nil
	}

	if creds.RefreshToken != "" && !token.IsExpired(creds.RefreshToken) {
		m.mu.Lock()
		m.refreshToken = creds.RefreshToken
		m.user = creds.Profile
		m.mu.Unlock()

		if err := m.Refresh(ctx); err != nil {
			m.logger.Info().Err(err).Msg("startup refresh failed, clearing session")
			m.collector.RecordRestore("refresh_failed")
			m.clearSession()
			return nil
		}
		m.collector.RecordRestore("refreshed")
		return nil
	}

	// Both tokens expired: normal unauthenticated state, not an error.
	m.collector.RecordRestore("expired")
	m.clearSession()
	return nil
}

// Login exchanges credentials for an authenticated session. The transition
// to authenticated is notified immediately; profile enrichment follows
// asynchronously and fires a second notification when it lands.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	result := m.deps.Transport.Login(ctx, email, password)
	m.collector.RecordLogin(result.Success)
	if !result.Success {
		if result.Unauthorized {
			return errors.Wrap(clienterrors.ErrInvalidCredentials, result.Message)
		}
		return errors.New(result.Message)
	}
	if result.AccessToken == "" {
		// A success response without a token is a malformed backend reply.
		return errors.Wrap(clienterrors.ErrInternal, "[Login] server response missing access token")
	}

	m.adoptTokens(result)

	go m.enrichProfile(context.WithoutCancel(ctx))
	return nil
}

// Register creates a new account. Password confirmation and strength are
// validated before any network call; the server performs the authoritative
// validation. When the backend logs the new user in, the session adopts the
// returned tokens as a login would.
func (m *Manager) Register(ctx context.Context, reg transport.Registration, passwordConfirm string) error {
	if reg.Password != passwordConfirm {
		return clienterrors.ErrPasswordMismatch
	}
	if err := users.ValidatePasswordStrength(reg.Password); err != nil {
		return err
	}

	result := m.deps.Transport.Register(ctx, reg)
	if !result.Success {
		return errors.New(result.Message)
	}

	if result.AccessToken != "" {
		m.adoptTokens(result)
	}
	return nil
}

// Logout clears the session unconditionally. Server-side invalidation is
// best effort and detached: its failure never blocks the local logout.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	refreshToken := m.refreshToken
	m.mu.Unlock()

	if refreshToken != "" {
		detached := context.WithoutCancel(ctx)
		go func() {
			defer m.recoverPanic("server logout")
			if result := m.deps.Transport.Logout(detached, refreshToken); !result.Success {
				m.logger.Debug().Str("message", result.Message).Msg("server-side logout failed")
			}
		}()
	}

	m.clearSession()
}

// ForgotPassword requests a password-reset email for the given address.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	result := m.deps.Transport.ForgotPassword(ctx, email)
	if !result.Success {
		return errors.New(result.Message)
	}
	return nil
}

// UpdateProfile persists profile changes through the backend and the
// credential store. The email address is immutable and always preserved
// from the current session.
func (m *Manager) UpdateProfile(ctx context.Context, profile users.Profile) error {
	m.mu.Lock()
	accessToken := m.accessToken
	current := m.user
	m.mu.Unlock()

	if accessToken == "" {
		return clienterrors.ErrNotAuthenticated
	}

	result := m.deps.Transport.UpdateProfile(ctx, accessToken, profile)
	if !result.Success {
		if result.Unauthorized {
			return errors.Wrap(clienterrors.ErrNotAuthenticated, result.Message)
		}
		return errors.New(result.Message)
	}

	updated := result.User
	if updated == nil {
		updated = utils.Ptr(profile)
	}
	if current != nil {
		updated.Email = current.Email
	}

	m.mu.Lock()
	m.user = updated
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(credentials.Credentials{Profile: updated})
	m.notify(snap)
	return nil
}

// Refresh runs the refresh routine: up to the configured number of attempts
// with linear backoff between them. Only one refresh may be in flight; a
// concurrent caller gets ErrRefreshInProgress immediately. The caller
// decides what exhaustion means (startup and timer paths clear the session).
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing {
		m.mu.Unlock()
		return clienterrors.ErrRefreshInProgress
	}
	refreshToken := m.refreshToken
	if refreshToken == "" {
		m.mu.Unlock()
		return clienterrors.ErrNoRefreshToken
	}
	if token.IsExpired(refreshToken) {
		m.mu.Unlock()
		return clienterrors.ErrRefreshTokenExpired
	}
	m.refreshing = true
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	var lastMessage string
	attempts := m.cfg.GetRefreshRetries()
	for attempt := 1; attempt <= attempts; attempt++ {
		m.collector.RecordRefreshAttempt()
		result := m.deps.Transport.Refresh(ctx, refreshToken)
		if result.Success && result.AccessToken != "" {
			m.mu.Lock()
			m.refreshing = false
			m.accessToken = result.AccessToken
			if result.RefreshToken != "" {
				m.refreshToken = result.RefreshToken
			}
			m.state = StateAuthenticated
			m.scheduleProactiveLocked(result.AccessToken)
			creds := credentials.Credentials{AccessToken: m.accessToken, RefreshToken: m.refreshToken}
			snap = m.snapshotLocked()
			m.mu.Unlock()

			m.persist(creds)
			m.notify(snap)
			m.logger.Debug().Int("attempt", attempt).Msg("token refresh succeeded")
			return nil
		}

		lastMessage = result.Message
		m.logger.Warn().Int("attempt", attempt).Str("message", result.Message).Msg("token refresh attempt failed")
		if result.Unauthorized {
			// The server rejected the refresh token itself. Retrying
			// cannot succeed.
			break
		}
		if attempt < attempts {
			if err := m.sleep(ctx, time.Duration(attempt)*m.cfg.GetRefreshBackoffStep()); err != nil {
				break
			}
		}
	}

	m.mu.Lock()
	m.refreshing = false
	snap = m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	m.collector.RecordRefreshExhausted()
	if lastMessage != "" {
		return errors.Wrap(clienterrors.ErrRefreshExhausted, lastMessage)
	}
	return clienterrors.ErrRefreshExhausted
}

// ReportUnauthorized is the reactive-refresh entry point for feature
// clients whose API call came back 401. A refresh already in flight is
// reported as such without waiting; any other refresh failure forces a
// logout so the UI never sits in a half-authenticated state.
func (m *Manager) ReportUnauthorized(ctx context.Context) error {
	err := m.Refresh(ctx)
	if err == nil || clienterrors.Is(err, clienterrors.ErrRefreshInProgress) {
		return err
	}

	m.collector.RecordForcedLogout()
	m.clearSession()
	return err
}

// adoptTokens installs a successful login/register result as the live
// session, persists it and schedules the proactive refresh.
func (m *Manager) adoptTokens(result transport.Result) {
	m.mu.Lock()
	m.accessToken = result.AccessToken
	if result.RefreshToken != "" {
		m.refreshToken = result.RefreshToken
	}
	if result.User != nil {
		m.user = result.User
	}
	m.state = StateAuthenticated
	m.scheduleProactiveLocked(result.AccessToken)
	creds := credentials.Credentials{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		Profile:      m.user,
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(creds)
	m.notify(snap)
}

// scheduleProactiveLocked replaces any pending refresh timer with one for
// the given access token. At most one timer is outstanding at any time.
// Caller must hold m.mu.
func (m *Manager) scheduleProactiveLocked(accessToken string) {
	if m.timer != nil {
		m.timer.Cancel()
	}

	var delay time.Duration
	if remaining := token.TimeUntilExpiration(accessToken); remaining != nil {
		if *remaining > m.cfg.GetRefreshMargin() {
			delay = *remaining - m.cfg.GetRefreshMargin()
		} else {
			delay = m.cfg.GetShortLifetimeDelay()
		}
	}
	// Unknown or non-positive remaining lifetime fires immediately.

	m.logger.Debug().Dur("delay", delay).Msg("scheduling proactive refresh")
	m.timer = m.scheduler.Schedule(delay, m.onProactiveTimer)
}

// onProactiveTimer is the timer-driven refresh path. Exhausted retries
// clear the session so the UI observes the forced logout.
func (m *Manager) onProactiveTimer() {
	defer m.recoverPanic("proactive refresh")

	err := m.Refresh(context.Background())
	if err == nil || clienterrors.Is(err, clienterrors.ErrRefreshInProgress) {
		return
	}

	m.logger.Warn().Err(err).Msg("proactive refresh failed, clearing session")
	m.collector.RecordForcedLogout()
	m.clearSession()
}

// verifyProfile is the detached background check run when startup restores
// a currently-valid access token. Network failures leave the session
// untouched; a rejected token funnels into the shared refresh/clear path.
func (m *Manager) verifyProfile(ctx context.Context, accessToken string) {
	defer m.recoverPanic("profile verification")

	result := m.deps.Transport.GetProfile(ctx, accessToken)
	if result.Success && result.User != nil {
		m.mu.Lock()
		if m.accessToken != accessToken {
			// Session changed while the fetch was in flight.
			m.mu.Unlock()
			return
		}
		m.user = result.User
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.persist(credentials.Credentials{Profile: result.User})
		m.notify(snap)
		return
	}

	if result.Unauthorized {
		err := m.Refresh(ctx)
		if err == nil || clienterrors.Is(err, clienterrors.ErrRefreshInProgress) {
			return
		}
		m.logger.Warn().Err(err).Msg("background verification could not recover token, clearing session")
		m.collector.RecordForcedLogout()
		m.clearSession()
	}
	// Transient failures: cached credentials remain trusted.
}

// enrichProfile re-fetches the full profile after login without blocking
// the authenticated transition.
func (m *Manager) enrichProfile(ctx context.Context) {
	defer m.recoverPanic("profile enrichment")

	m.mu.Lock()
	accessToken := m.accessToken
	m.mu.Unlock()
	if accessToken == "" {
		return
	}

	result := m.deps.Transport.GetProfile(ctx, accessToken)
	if !result.Success || result.User == nil {
		return
	}

	m.mu.Lock()
	if m.accessToken != accessToken {
		m.mu.Unlock()
		return
	}
	m.user = result.User
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(credentials.Credentials{Profile: result.User})
	m.notify(snap)
}

// clearSession resets every session field and erases the credential store.
// It is idempotent: clearing an already-clear session leaves identical
// state and fires a notification either way.
func (m *Manager) clearSession() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Cancel()
		m.timer = nil
	}
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.refreshing = false
	m.state = StateUnauthenticated
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.deps.Store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear credential store")
		m.collector.RecordStoreWriteError()
	}
	m.notify(snap)
}

// persist writes credentials to the store. Write failures are logged and
// never fatal: the session continues in memory only.
func (m *Manager) persist(creds credentials.Credentials) {
	if err := m.deps.Store.Save(creds); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist credentials")
		m.collector.RecordStoreWriteError()
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:         m.state,
		Authenticated: m.accessToken != "",
		Refreshing:    m.refreshing,
		AccessToken:   m.accessToken,
		RefreshToken:  m.refreshToken,
		User:          m.user,
	}
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	listeners := make([]func(Snapshot), 0, len(m.subscribers))
	for _, listener := range m.subscribers {
		listeners = append(listeners, listener)
	}
	m.subMu.Unlock()

	for _, listener := range listeners {
		listener(snap)
	}
}

func (m *Manager) recoverPanic(op string) {
	if r := recover(); r != nil {
		m.logger.Error().Interface("panic", r).Str("op", op).Msg("recovered from panic")
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
