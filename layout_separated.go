package goLink

import (
	"context"
	"slices"

	"github.com/MrEthical07/goLink/session"
	"github.com/MrEthical07/goLink/storage"
)

// separatedLayout keeps the identifier list and each secret under their own
// keys. Identifiers are global; URL and metadata are not persisted.
type separatedLayout struct {
	env  layoutEnv
	list storage.Key[[]string]
}

func newSeparatedLayout(env layoutEnv) *separatedLayout {
	return &separatedLayout{
		env:  env,
		list: storage.NewKey[[]string](env.prefix+listKeySuffix, session.IDListCodec{}),
	}
}

func (l *separatedLayout) name() string    { return LayoutSeparated.String() }
func (l *separatedLayout) listKey() string { return l.list.Name }

func (l *separatedLayout) secretKey(sessionID string) storage.Key[string] {
	return storage.NewKey[string](l.env.prefix+secretKeyPrefix+sessionID, storage.StringCodec{})
}

// save writes the secret before the list so the list never names an
// identifier whose secret was never written. Nothing is written when the
// new list would not fit.
func (l *separatedLayout) save(ctx context.Context, sess session.Session) error {
	ids, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return err
	}

	next := slices.DeleteFunc(ids, func(id string) bool { return id == sess.ID })
	if len(next) >= session.MaxListLen {
		return invalidArgument(ErrTooManySessions)
	}
	next = append(next, sess.ID)

	if err := storeKey(ctx, l.env, l.secretKey(sess.ID), sess.Secret); err != nil {
		return err
	}
	return storeKey(ctx, l.env, l.list, next)
}

func (l *separatedLayout) remove(ctx context.Context, sessionID, _ string) error {
	ids, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return err
	}

	if err := clearKey(ctx, l.env, l.secretKey(sessionID)); err != nil {
		return err
	}

	if !slices.Contains(ids, sessionID) {
		return nil
	}
	next := slices.DeleteFunc(ids, func(id string) bool { return id == sessionID })
	return storeKey(ctx, l.env, l.list, next)
}

func (l *separatedLayout) load(ctx context.Context) ([]session.Session, error) {
	ids, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return nil, err
	}
	return l.join(ctx, ids)
}

// join pairs identifiers with their secrets, dropping identifiers whose
// secret is absent.
func (l *separatedLayout) join(ctx context.Context, ids []string) ([]session.Session, error) {
	sessions := make([]session.Session, 0, len(ids))
	for _, id := range ids {
		secret, ok, err := loadKey(ctx, l.env, l.secretKey(id))
		if err != nil {
			return nil, err
		}
		if !ok {
			l.env.metrics.Inc(MetricPartialSessionSkipped)
			l.env.log.WarnContext(ctx, "session secret missing, skipping", "session_id", id)
			continue
		}
		sessions = append(sessions, session.Session{ID: id, Secret: secret})
	}
	return sessions, nil
}

func (l *separatedLayout) ids(ctx context.Context) ([]string, error) {
	ids, _, err := loadKey(ctx, l.env, l.list)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (l *separatedLayout) scope(sessions []session.Session, _ string) []session.Session {
	return slices.Clone(sessions)
}

// transform joins secrets at delivery time. An engine failure during the
// join skips the update; the next write to the list retries it.
func (l *separatedLayout) transform(ctx context.Context, u storage.Update) ([]session.Session, bool) {
	ids, _ := l.transformIDs(ctx, u)
	sessions, err := l.join(ctx, ids)
	if err != nil {
		return nil, false
	}
	return sessions, true
}

func (l *separatedLayout) transformIDs(ctx context.Context, u storage.Update) ([]string, bool) {
	ids, ok := decodeKey(ctx, l.env, l.list, u)
	if !ok || ids == nil {
		return []string{}, true
	}
	return ids, true
}
