package session

import (
	"net/http"
	"sync"
	"time"
)

// Storage is a set of string-keyed slots holding opaque text, the persistent
// half of a Store. Each operation is atomic for a single key.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage keeps slots in a map. It is safe for concurrent use.
type MemoryStorage struct {
	mu    sync.Mutex
	slots map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

// CookieOptions controls the attributes of session cookies.
type CookieOptions struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
	// MaxAge is the browser-side lifetime. Zero yields a browser-session cookie.
	MaxAge time.Duration
}

// CookieStorage maps slots onto the cookies of one HTTP exchange. Reads see
// the request's cookies overlaid with writes made during the same exchange.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	opts    CookieOptions
	pending map[string]*string // nil value marks a deleted slot
}

// NewCookieStorage returns storage bound to one request/response pair.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStorage {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &CookieStorage{w: w, r: r, opts: opts, pending: make(map[string]*string)}
}

func (c *CookieStorage) Get(key string) (string, bool) {
	if v, ok := c.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	ck, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieStorage) Set(key, value string) error {
	ck := c.cookie(key, value)
	if err := ck.Valid(); err != nil {
		return err
	}
	if c.opts.MaxAge > 0 {
		ck.MaxAge = int(c.opts.MaxAge / time.Second)
	}
	http.SetCookie(c.w, ck)
	c.pending[key] = &value
	return nil
}

func (c *CookieStorage) Delete(key string) error {
	ck := c.cookie(key, "")
	ck.MaxAge = -1
	http.SetCookie(c.w, ck)
	c.pending[key] = nil
	return nil
}

func (c *CookieStorage) cookie(key, value string) *http.Cookie {
	return &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     c.opts.Path,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	}
}
