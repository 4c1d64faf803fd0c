// Package sessionexpiry tracks session tokens ordered by expiry instant
// and proactively reaps expired ones. It replaces auth.go's AuthManager,
// which kept tokens in a bare map and only ever checked expiry lazily,
// on the next Authenticate call for that specific token — a session that
// is never looked up again stays in memory forever. Ordering sessions by
// expiry in a skiplist.SkipList lets a Reaper evict the minimum (the
// next session due to expire) the moment it's due, the direct exercise
// of TryRemoveMin's "evict the global minimum" contract.
package sessionexpiry

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/concurrentskip/cpslcache/skiplist"
)

// ErrUnknownToken is returned by Touch and Revoke when the token has no
// live session.
var ErrUnknownToken = errors.New("sessionexpiry: unknown token")

func expiryComparator() skiplist.Comparator[time.Time] {
	return func(a, b time.Time) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		default:
			return 0
		}
	}
}

// Manager mirrors AuthManager's Login/Logout/Authenticate trio, renamed
// to the session vocabulary this package uses: Issue, Revoke, Touch.
// Usernames are tracked separately from the skip list (which only ever
// sees token -> expiry) the same way AuthManager kept a parallel
// userTokens map alongside its tokens map.
type Manager struct {
	sessions      *skiplist.SkipList[string, time.Time]
	tokenDuration time.Duration

	mu            sync.Mutex
	usernameByTok map[string]string
	tokenByUser   map[string]string

	logger *slog.Logger
}

// Options configures a Manager.
type Options struct {
	TokenDuration time.Duration
	Orchestrator  skiplist.Orchestrator
	Logger        *slog.Logger
}

// New constructs a Manager. TokenDuration defaults to one hour, matching
// AuthManager's documented default expiry window.
func New(opts Options) (*Manager, error) {
	tokenDuration := opts.TokenDuration
	if tokenDuration <= 0 {
		tokenDuration = time.Hour
	}
	orchestrator := opts.Orchestrator
	if orchestrator == nil {
		orchestrator = skiplist.InlineOrchestrator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := skiplist.New[string, time.Time](expiryComparator(), orchestrator, skiplist.Options{
		MaxSize: skiplist.Unbounded, // expired-session eviction is proactive via Reaper, not capacity-triggered
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("sessionexpiry: failed to construct backing skiplist: %w", err)
	}

	return &Manager{
		sessions:      sessions,
		tokenDuration: tokenDuration,
		usernameByTok: make(map[string]string),
		tokenByUser:   make(map[string]string),
		logger:        logger,
	}, nil
}

// Issue generates a new session token for username, replacing and
// revoking any existing session for that user, mirroring AuthManager's
// Login.
func (m *Manager) Issue(username string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("sessionexpiry: failed to generate token: %w", err)
	}

	m.mu.Lock()
	if oldToken, exists := m.tokenByUser[username]; exists {
		delete(m.usernameByTok, oldToken)
		m.sessions.TryRemove(oldToken)
	}
	m.tokenByUser[username] = token
	m.usernameByTok[token] = username
	m.mu.Unlock()

	m.sessions.TryAdd(token, time.Now().Add(m.tokenDuration))
	return token, nil
}

// Revoke ends token's session immediately, mirroring AuthManager's
// Logout.
func (m *Manager) Revoke(token string) error {
	m.mu.Lock()
	username, exists := m.usernameByTok[token]
	if exists {
		delete(m.usernameByTok, token)
		delete(m.tokenByUser, username)
	}
	m.mu.Unlock()

	if !exists {
		return ErrUnknownToken
	}
	m.sessions.TryRemove(token)
	return nil
}

// Touch validates token and, if live, resets its expiry to tokenDuration
// from now, mirroring AuthManager's Authenticate.
func (m *Manager) Touch(token string) (string, error) {
	m.mu.Lock()
	username, exists := m.usernameByTok[token]
	m.mu.Unlock()
	if !exists {
		return "", ErrUnknownToken
	}

	expiry, ok := m.sessions.TryGetValue(token)
	if !ok || time.Now().After(expiry) {
		return "", ErrUnknownToken
	}

	if err := m.sessions.UpdateValue(token, time.Now().Add(m.tokenDuration)); err != nil {
		return "", ErrUnknownToken
	}
	return username, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.GetCount()
}

func generateToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// Reaper periodically evicts sessions whose expiry has passed, exercising
// TryRemoveMin's "evict the current minimum" contract: on each tick it
// removes the minimum-expiry session repeatedly until the minimum is not
// yet due. The minimum is the next one due, so once it isn't expired
// nothing else is either and the rest of the tick is a no-op.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper constructs a Reaper that checks for expired sessions every
// interval.
func NewReaper(manager *Manager, interval time.Duration) *Reaper {
	return &Reaper{manager: manager, interval: interval, logger: manager.logger}
}

// Run blocks, reaping expired sessions on each tick, until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *Reaper) reapOnce() {
	for {
		_, expiry, ok := r.peekMinimum()
		if !ok || time.Now().Before(expiry) {
			return
		}

		token, removed := r.manager.sessions.TryRemoveMin()
		if !removed {
			return
		}

		r.manager.mu.Lock()
		if username, exists := r.manager.usernameByTok[token]; exists {
			delete(r.manager.usernameByTok, token)
			delete(r.manager.tokenByUser, username)
		}
		r.manager.mu.Unlock()

		r.logger.Info("sessionexpiry: reaped expired session", "token", token)
	}
}

// peekMinimum reports the minimum-expiry session without removing it, so
// reapOnce can decide whether it's actually due before paying for a
// TryRemoveMin. It stops at the first live entry instead of calling
// ToArray, which would walk and allocate for the whole list just to read
// one element.
func (r *Reaper) peekMinimum() (token string, expiry time.Time, ok bool) {
	it := r.manager.sessions.Iterate()
	if !it.Next() {
		return "", time.Time{}, false
	}
	first := it.Entry()
	return first.Key, first.Priority, true
}
