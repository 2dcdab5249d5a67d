package trace

import "errors"

// ErrInvalidTrace is wrapped by any trace parsing or I/O failure: a
// malformed text line, a truncated binary file, a record-count mismatch,
// or an unreadable file.
var ErrInvalidTrace = errors.New("invalid trace")
