package goLink

import (
	"net/url"
	"strings"

	"github.com/MrEthical07/goLink/session"
)

// SaveOption sets an optional field on the session built by Save.
type SaveOption func(*session.Session)

// WithURL sets the owning server URL. The separated layout does not persist it.
func WithURL(u string) SaveOption {
	return func(s *session.Session) { s.URL = u }
}

// WithVersion sets the protocol version.
func WithVersion(v string) SaveOption {
	return func(s *session.Session) { s.Version = v }
}

// WithDappName sets the requesting application's name.
func WithDappName(name string) SaveOption {
	return func(s *session.Session) { s.DappName = name }
}

// WithDappImageURL sets the requesting application's icon URL.
func WithDappImageURL(u string) SaveOption {
	return func(s *session.Session) { s.DappImageURL = u }
}

// WithDappURL sets the requesting application's URL.
func WithDappURL(u string) SaveOption {
	return func(s *session.Session) { s.DappURL = u }
}

// buildSession applies opts and validates the result. The session is
// returned even when invalid so rejections can still be attributed to a URL.
func buildSession(sessionID, secret string, opts []SaveOption) (session.Session, error) {
	sess := session.Session{ID: sessionID, Secret: secret}
	for _, opt := range opts {
		if opt != nil {
			opt(&sess)
		}
	}

	if strings.TrimSpace(sess.ID) == "" {
		return sess, invalidArgument(ErrInvalidSessionID)
	}
	if sess.Secret == "" {
		return sess, invalidArgument(ErrInvalidSecret)
	}
	fields := []string{sess.ID, sess.Secret, sess.URL, sess.Version, sess.DappName, sess.DappImageURL, sess.DappURL}
	for _, f := range fields {
		if len(f) > session.MaxFieldLen {
			return sess, invalidArgument(ErrFieldTooLong)
		}
	}
	for _, raw := range []string{sess.URL, sess.DappImageURL, sess.DappURL} {
		if raw != "" && !isAbsoluteURL(raw) {
			return sess, invalidArgument(ErrInvalidURL)
		}
	}
	return sess, nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
