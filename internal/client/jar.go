package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statspot/internal/session"
	"github.com/desertthunder/statspot/internal/shared"
)

type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// Jar is an [http.CookieJar] that mirrors the service origin's cookies into profile storage
// under [session.KeyCookies], so the refresh cookie outlives the process.
//
// The cookie values are opaque to statspot and never logged.
type Jar struct {
	mu      sync.Mutex
	inner   *cookiejar.Jar
	origin  *url.URL
	storage session.Storage
	cookies map[string]storedCookie
	now     func() time.Time
	logger  *log.Logger
}

// NewJar creates a jar for origin and restores any unexpired persisted cookies.
// Entries without an expiry are session cookies from an earlier run and are dropped.
func NewJar(storage session.Storage, origin string, logger *log.Logger) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: service url %q", shared.ErrInvalidConfig, origin)
	}

	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &Jar{
		inner:   inner,
		origin:  u,
		storage: storage,
		cookies: map[string]storedCookie{},
		now:     time.Now,
		logger:  logger,
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) load() error {
	raw, err := j.storage.Get(session.KeyCookies)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cookies: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		j.logger.Warn("discarding unreadable cookie store")
		return j.storage.Delete(session.KeyCookies)
	}

	now := j.now()
	restore := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if c.Expires.IsZero() || !now.Before(c.Expires) {
			continue
		}
		j.cookies[c.Name] = c
		restore = append(restore, &http.Cookie{
			Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires, Secure: c.Secure, HttpOnly: c.HttpOnly,
		})
	}
	j.inner.SetCookies(j.origin, restore)
	return nil
}

// Cookies implements [http.CookieJar].
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// SetCookies implements [http.CookieJar]. Persistent cookies set by the service origin are
// mirrored to storage; Max-Age=0 (or a past Expires) removes them. Session cookies live in memory only.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	now := j.now()
	for _, c := range cookies {
		switch {
		case c.MaxAge < 0:
			delete(j.cookies, c.Name)
		case c.MaxAge > 0:
			j.cookies[c.Name] = fromHTTP(c, now.Add(time.Duration(c.MaxAge)*time.Second))
		case c.Expires.IsZero(), !now.Before(c.Expires):
			delete(j.cookies, c.Name)
		default:
			j.cookies[c.Name] = fromHTTP(c, c.Expires)
		}
	}

	if err := j.persist(); err != nil {
		j.logger.Warn("failed to persist cookies", "error", err)
	}
}

func fromHTTP(c *http.Cookie, expires time.Time) storedCookie {
	return storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: expires, Secure: c.Secure, HttpOnly: c.HttpOnly}
}

func (j *Jar) persist() error {
	if len(j.cookies) == 0 {
		if err := j.storage.Delete(session.KeyCookies); err != nil && !errors.Is(err, shared.ErrKeyNotFound) {
			return err
		}
		return nil
	}

	list := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		list = append(list, c)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return j.storage.Set(session.KeyCookies, string(data))
}

// Has reports whether a live cookie named name is held for the origin.
func (j *Jar) Has(name string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range j.inner.Cookies(j.origin) {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Clear drops every cookie, in memory and on disk.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.inner = inner
	j.cookies = map[string]storedCookie{}
	return j.persist()
}
