// Package session holds the authenticated-admin state consulted by the
// dashboard route guard. A Store is an owned object with an explicit
// Init/Current/Save/Clear lifecycle over a persistent Storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spardhafest/spardha/internal/model"
)

// Storage slots.
const (
	SlotAdminSession = "admin_session"
	// SlotLegacyAuth held a timestamp-only auth flag. Sessions now carry their
	// own expiry, so the slot is removed whenever it is seen.
	SlotLegacyAuth = "spardha_admin_auth"
)

// Store is the authenticated-admin record for one client. It is not safe for
// concurrent use; build one per request.
type Store struct {
	storage Storage
	codec   *Codec
	logger  *slog.Logger

	current *model.AdminSession
	loaded  bool
}

// New returns an uninitialized Store. Call Init before reading it.
func New(storage Storage, codec *Codec, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{storage: storage, codec: codec, logger: logger}
}

// Init restores the session from storage. Malformed, forged or expired
// content is treated as absent and its slot deleted. Init runs once; later
// calls are no-ops.
func (s *Store) Init() {
	if s.loaded {
		return
	}
	s.loaded = true

	if _, ok := s.storage.Get(SlotLegacyAuth); ok {
		s.drop(SlotLegacyAuth, "legacy auth flag")
	}

	blob, ok := s.storage.Get(SlotAdminSession)
	if !ok || blob == "" {
		return
	}

	sess, err := s.codec.Decode(blob)
	if err != nil {
		reason := "malformed session"
		if errors.Is(err, ErrExpired) {
			reason = "expired session"
		}
		s.drop(SlotAdminSession, reason)
		return
	}
	s.current = sess
}

func (s *Store) drop(slot, reason string) {
	if err := s.storage.Delete(slot); err != nil {
		s.logger.Warn("failed to delete session slot", "slot", slot, "reason", reason, "error", err)
		return
	}
	s.logger.Debug("session slot discarded", "slot", slot, "reason", reason)
}

// Loaded reports whether Init has completed.
func (s *Store) Loaded() bool { return s.loaded }

// IsAuthenticated reports whether an admin session is present.
func (s *Store) IsAuthenticated() bool { return s.current != nil }

// Current returns the session, or nil when unauthenticated.
func (s *Store) Current() *model.AdminSession { return s.current }

// Save persists sess and makes it current. The in-memory session is only
// replaced once the persisted write succeeded.
func (s *Store) Save(sess *model.AdminSession) error {
	if sess == nil {
		return errors.New("save session: nil session")
	}
	blob, err := s.codec.Encode(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.storage.Set(SlotAdminSession, blob); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = sess
	s.loaded = true
	return nil
}

// Clear removes the session from memory and storage.
func (s *Store) Clear() error {
	s.current = nil
	s.loaded = true
	if err := s.storage.Delete(SlotAdminSession); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Manager builds cookie-backed Stores for HTTP requests.
type Manager struct {
	codec  *Codec
	cookie CookieOptions
	logger *slog.Logger
}

// NewManager returns a Manager. The cookie lifetime follows the codec's max
// age.
func NewManager(codec *Codec, cookie CookieOptions, logger *slog.Logger) *Manager {
	cookie.MaxAge = codec.MaxAge()
	return &Manager{codec: codec, cookie: cookie, logger: logger}
}

// Load returns an initialized Store for the client behind r.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Store {
	s := New(NewCookieStorage(w, r, m.cookie), m.codec, m.logger)
	s.Init()
	return s
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Store attached by NewContext, or nil.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(contextKey{}).(*Store)
	return s
}
