package history

import "errors"

var (
	// ErrConfiguration means the registry is miswired: a tag with no handler or a duplicate.
	ErrConfiguration = errors.New("history: configuration error")

	// ErrAuthenticationRequired means no actor was present in the request context.
	ErrAuthenticationRequired = errors.New("history: authentication required")

	// ErrDataIntegrity means a non-CREATE action targets an entity with no CREATE record.
	ErrDataIntegrity = errors.New("history: data integrity fault")

	// ErrPersistence wraps every storage failure.
	ErrPersistence = errors.New("history: persistence failure")

	// ErrInvalidArgument means a caller passed a malformed tag, action, id or snapshot.
	ErrInvalidArgument = errors.New("history: invalid argument")
)
