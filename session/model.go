package session

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

const redacted = "[redacted]"

// Session is a persisted link between this client and a remote
// wallet-linking server.
//
// Optional metadata fields use the empty string for "absent". Secret is
// sensitive: it is excluded from String, GoString and LogValue.
type Session struct {
	ID     string
	Secret string
	URL    string

	Version      string
	DappName     string
	DappImageURL string
	DappURL      string
}

// Key identifies a session within a store: the identifier plus its owning URL.
type Key struct {
	ID  string
	URL string
}

// Key returns the identity of s. Use it for UI diffing; use [Session.Equal]
// to detect content changes.
func (s Session) Key() Key {
	return Key{ID: s.ID, URL: s.URL}
}

// Equal reports whether every field of s and other matches. Secrets are
// compared in constant time.
func (s Session) Equal(other Session) bool {
	if s.ID != other.ID ||
		s.URL != other.URL ||
		s.Version != other.Version ||
		s.DappName != other.DappName ||
		s.DappImageURL != other.DappImageURL ||
		s.DappURL != other.DappURL {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.Secret), []byte(other.Secret)) == 1
}

// String implements fmt.Stringer without the secret.
func (s Session) String() string {
	return fmt.Sprintf("Session{ID:%q URL:%q Secret:%s}", s.ID, s.URL, redacted)
}

// GoString keeps %#v from leaking the secret.
func (s Session) GoString() string {
	return s.String()
}

// LogValue implements slog.LogValuer.
func (s Session) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", s.ID),
		slog.String("secret", redacted),
	}
	if s.URL != "" {
		attrs = append(attrs, slog.String("url", s.URL))
	}
	if s.Version != "" {
		attrs = append(attrs, slog.String("version", s.Version))
	}
	if s.DappName != "" {
		attrs = append(attrs, slog.String("dapp_name", s.DappName))
	}
	return slog.GroupValue(attrs...)
}

// EqualLists reports whether a and b hold equal sessions in the same order.
func EqualLists(a, b []Session) bool {
	return slices.EqualFunc(a, b, Session.Equal)
}

// SortByIDDesc sorts sessions in place by identifier, descending. Sessions
// sharing an identifier keep a deterministic order by URL ascending.
func SortByIDDesc(sessions []Session) {
	slices.SortStableFunc(sessions, func(a, b Session) int {
		if c := strings.Compare(b.ID, a.ID); c != 0 {
			return c
		}
		return strings.Compare(a.URL, b.URL)
	})
}

// FilterByURL returns a new slice with the sessions owned by url.
func FilterByURL(sessions []Session, url string) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if s.URL == url {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the first session matching id and url.
func Find(sessions []Session, id, url string) (Session, bool) {
	for _, s := range sessions {
		if s.ID == id && s.URL == url {
			return s, true
		}
	}
	return Session{}, false
}
