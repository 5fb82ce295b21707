package repositories

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("repositories: not found")

	// ErrStaleCart is returned by Save when the stored cart moved since it
	// was loaded, or when another writer created the owner's cart first.
	ErrStaleCart = errors.New("repositories: cart version is stale")
)
