package goLink

import "errors"

var (
	// ErrInvalidArgument marks a call rejected before touching storage.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidSessionID is returned by Save for an empty or blank identifier.
	ErrInvalidSessionID = errors.New("invalid session id")
	// ErrInvalidSecret is returned by Save for an empty secret.
	ErrInvalidSecret = errors.New("invalid session secret")
	// ErrInvalidURL is returned by Save for a URL option that is not absolute.
	ErrInvalidURL = errors.New("invalid session url")
	// ErrFieldTooLong is returned by Save for a field longer than session.MaxFieldLen bytes.
	ErrFieldTooLong = errors.New("session field too long")
	// ErrTooManySessions is returned by Save when the list would exceed session.MaxListLen entries.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrEngineUnavailable wraps persistence engine failures.
	ErrEngineUnavailable = errors.New("session engine unavailable")
	// ErrNilEngine is returned by Build when no engine could be resolved.
	ErrNilEngine = errors.New("nil storage engine")
	// ErrBuilderUsed is returned by a second Build call on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrStoreClosed is returned by operations on a closed Store.
	ErrStoreClosed = errors.New("session store closed")
)

func invalidArgument(err error) error {
	return errors.Join(ErrInvalidArgument, err)
}
