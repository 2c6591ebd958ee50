package session

import "errors"

// Failure classes. Returned errors wrap one of these together with the
// underlying cause, so both can be matched with errors.Is.
var (
	// ErrAdapterInit means the identity provider failed to initialise. The
	// session stays usable and starts unauthenticated.
	ErrAdapterInit = errors.New("identity provider initialization failed")

	// ErrAdapterConnect means a connect, disconnect or profile call to the
	// identity provider failed.
	ErrAdapterConnect = errors.New("identity provider call failed")

	// ErrPersistence means a gateway call failed.
	ErrPersistence = errors.New("persistence call failed")

	// ErrClosed is returned by actions invoked after Close.
	ErrClosed = errors.New("session closed")
)
