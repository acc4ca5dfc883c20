// Package errs holds sentinel errors shared between packages.
package errs

import "errors"

var (
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrFamilyNotFound      = errors.New("metric family not found")
	ErrMalformedExposition = errors.New("malformed exposition text")
	ErrFetchFailed         = errors.New("unable to connect to metrics endpoint")
	ErrStaleSnapshot       = errors.New("stale snapshot")
)
