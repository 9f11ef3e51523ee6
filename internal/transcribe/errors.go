package transcribe

import "errors"

// ErrSkipped marks a chunk that was never dispatched because an earlier
// chunk failed terminally. Skipped chunks were not attempted; retrying
// them may well succeed.
var ErrSkipped = errors.New("chunk skipped after earlier failure")
