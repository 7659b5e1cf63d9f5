package blob

import "errors"

var (
	// ErrNotFound is returned when a storage ref resolves to nothing:
	// the ref is zero, or the local path is missing.
	ErrNotFound = errors.New("byte source not found")

	// ErrUpstreamFetch wraps failures fetching bytes from the remote blob
	// host (network errors and non-2xx responses).
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrUpstreamUpload wraps failures pushing bytes to the remote blob
	// host, including the provider's diagnostic payload.
	ErrUpstreamUpload = errors.New("upstream upload failed")
)
