package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: no record stored for the key
//   - ErrCorrupt: a stored record exists but cannot be decoded
//   - ErrConflict: a write kept losing an optimistic race and gave up
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("corrupt record")
	ErrConflict = errors.New("conflict")
)
