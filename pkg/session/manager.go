package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/metrics"
)

// Header carriers for the session id. HeaderSessionID wins when both are present.
const (
	HeaderSessionID     = "X-Session-ID"
	HeaderAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
)

// Manager implements the session lifecycle on top of a Store.
type Manager struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
	token func() (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithTokenSource replaces the random token generator.
func WithTokenSource(fn func() (string, error)) Option { return func(m *Manager) { m.token = fn } }

// NewManager returns a Manager backed by store.
func NewManager(store Store, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{store: store, log: log, now: time.Now, token: NewToken}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewToken returns TokenBytes of crypto/rand entropy, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create issues a session for a user that has just authenticated. When the user already
// holds MaxPerUser active sessions the oldest-created ones are evicted first.
func (m *Manager) Create(ctx context.Context, userID, email string, isAdmin bool, ip, userAgent string) (Session, error) {
	id, err := m.token()
	if err != nil {
		return Session{}, err
	}
	now := m.now().UTC()
	s := Session{
		ID:        id,
		UserID:    userID,
		UserEmail: email,
		IsAdmin:   isAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(Timeout),
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if err := m.enforceCap(ctx, userID, now); err != nil {
		return Session{}, err
	}
	if err := m.store.Put(ctx, s); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	m.log.Info(ctx, "session_created", "user_id", userID, "session", HashID(id))
	return s, nil
}

func (m *Manager) enforceCap(ctx context.Context, userID string, now time.Time) error {
	existing, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	active := make([]Session, 0, len(existing))
	for _, s := range existing {
		if s.Expired(now) {
			m.evict(ctx, s.ID, "expired")
			continue
		}
		active = append(active, s)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })

	for len(active) >= MaxPerUser {
		m.evict(ctx, active[0].ID, "cap")
		m.log.Info(ctx, "session_evicted_over_cap", "user_id", userID, "session", HashID(active[0].ID))
		active = active[1:]
	}
	return nil
}

func (m *Manager) evict(ctx context.Context, id, reason string) bool {
	removed, err := m.store.Delete(ctx, id)
	if err != nil {
		m.log.Error(ctx, "session_delete_failed", "session", HashID(id), "error", err)
		return false
	}
	if removed {
		metrics.RecordSessionEviction(reason)
	}
	return removed
}

// Get returns the session, or nil when it is absent or expired. Expired sessions are
// removed as a side effect.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(m.now()) {
		m.evict(ctx, id, "expired")
		return nil, nil
	}
	return &s, nil
}

// Refresh pushes the expiry Timeout past now. It returns nil when the session is absent or expired.
func (m *Manager) Refresh(ctx context.Context, id string) (*Session, error) {
	s, err := m.Get(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	s.ExpiresAt = m.now().UTC().Add(Timeout)
	if err := m.store.Put(ctx, *s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return s, nil
}

// Invalidate removes a session unconditionally and reports whether one existed.
func (m *Manager) Invalidate(ctx context.Context, id string) (bool, error) {
	removed, err := m.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	if removed {
		metrics.RecordSessionEviction("logout")
		m.log.Info(ctx, "session_invalidated", "session", HashID(id))
	}
	return removed, nil
}

// IDFromRequest returns the session id carried by r, preferring X-Session-ID over a
// bearer Authorization header. It returns "" when neither is present.
func IDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderSessionID)); id != "" {
		return id
	}
	if auth := r.Header.Get(HeaderAuthorization); strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimSpace(auth[len(bearerPrefix):])
	}
	return ""
}

// ErrMissing is the error for a request that carries no session id.
func ErrMissing() error {
	return apperr.New(apperr.AuthenticationMissing, "AUTHENTICATION_REQUIRED",
		"Missing session ID. Include X-Session-ID header or Authorization: Bearer <session_id>").
		WithChallenge("Bearer")
}

// Authenticate resolves id to a live session and refreshes it.
func (m *Manager) Authenticate(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrMissing()
	}
	s, err := m.Refresh(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s == nil {
		return Session{}, apperr.New(apperr.AuthenticationInvalid, "INVALID_SESSION", "Invalid or expired session").
			WithChallenge("Bearer")
	}
	return *s, nil
}

// AuthenticateRequest is Authenticate applied to the carriers of r.
func (m *Manager) AuthenticateRequest(r *http.Request) (Session, error) {
	return m.Authenticate(r.Context(), IDFromRequest(r))
}

// RequireAdmin fails with an authorization error unless s belongs to an administrator.
func RequireAdmin(s Session) error {
	if !s.IsAdmin {
		return apperr.New(apperr.AuthorizationDenied, "ADMIN_REQUIRED", "Admin privileges required")
	}
	return nil
}

// Seed stores the given sessions verbatim. Used for development fixtures.
func (m *Manager) Seed(ctx context.Context, sessions ...Session) error {
	for _, s := range sessions {
		if err := m.store.Put(ctx, s); err != nil {
			return fmt.Errorf("seed session %s: %w", HashID(s.ID), err)
		}
	}
	return nil
}

// DevSessions returns the fixed development sessions: a customer and an administrator,
// each valid for 24 hours from now.
func DevSessions(now time.Time) []Session {
	now = now.UTC()
	return []Session{
		{ID: "dev_session_001", UserID: "cust_001", UserEmail: "orders@acme.com", CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
		{ID: "admin_session_001", UserID: "admin_001", UserEmail: "admin@example.com", IsAdmin: true, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
	}
}

// Sweep removes every expired session and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.now()
	var expired []string
	err := m.store.Scan(ctx, func(s Session) bool {
		if s.Expired(now) {
			expired = append(expired, s.ID)
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}
	n := 0
	for _, id := range expired {
		if m.evict(ctx, id, "sweep") {
			n++
		}
	}
	return n, nil
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := m.Sweep(ctx)
				if err != nil {
					m.log.Error(ctx, "session_sweep_failed", "error", err)
					continue
				}
				if n > 0 {
					m.log.Info(ctx, "session_sweep", "removed", n)
				}
			}
		}
	}()
}
