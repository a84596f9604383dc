package goLink

import (
	"context"
	"slices"

	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

// unifiedLayout keeps every session record, URL included, under one key.
type unifiedLayout struct {
	env  layoutEnv
	list storage.Key[[]session.Session]
}

func newUnifiedLayout(env layoutEnv) *unifiedLayout {
	return &unifiedLayout{
		env:  env,
		list: storage.NewKey[[]session.Session](env.prefix+listKeySuffix, session.ListCodec{}),
	}
}

func (l *unifiedLayout) name() string    { return LayoutUnified.String() }
func (l *unifiedLayout) listKey() string { return l.list.Name }

func (l *unifiedLayout) save(ctx context.Context, sess session.Session) error {
	current, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return err
	}

	next := slices.DeleteFunc(current, func(s session.Session) bool {
		return s.ID == sess.ID && s.URL == sess.URL
	})
	if len(next) >= session.MaxListLen {
		return invalidArgument(ErrTooManySessions)
	}
	next = append(next, sess)
	return storeKey(ctx, l.env, l.list, next)
}

func (l *unifiedLayout) remove(ctx context.Context, sessionID, url string) error {
	current, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return err
	}

	n := len(current)
	next := slices.DeleteFunc(current, func(s session.Session) bool {
		return s.ID == sessionID && s.URL == url
	})
	if len(next) == n {
		return nil
	}
	return storeKey(ctx, l.env, l.list, next)
}

func (l *unifiedLayout) load(ctx context.Context) ([]session.Session, error) {
	sessions, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	session.SortByIDDesc(sessions)
	return sessions, nil
}

func (l *unifiedLayout) ids(ctx context.Context) ([]string, error) {
	sessions, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(sessions), nil
}

func (l *unifiedLayout) scope(sessions []session.Session, url string) []session.Session {
	return session.FilterByURL(sessions, url)
}

func (l *unifiedLayout) transform(ctx context.Context, u storage.Update) ([]session.Session, bool) {
	sessions, ok := decodeKey(ctx, l.env, l.list, u)
	if !ok || sessions == nil {
		return []session.Session{}, true
	}
	return sessions, true
}

func (l *unifiedLayout) transformIDs(ctx context.Context, u storage.Update) ([]string, bool) {
	sessions, _ := l.transform(ctx, u)
	return uniqueIDs(sessions), true
}

// uniqueIDs returns the distinct identifiers in stored order.
func uniqueIDs(sessions []session.Session) []string {
	ids := make([]string, 0, len(sessions))
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		ids = append(ids, s.ID)
	}
	return ids
}
