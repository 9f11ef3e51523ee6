package audio

import "errors"

// ErrUnsupportedInput indicates the source recording is empty, unreadable,
// or not an audio file we can work with. Fatal, never retried.
var ErrUnsupportedInput = errors.New("unsupported input")

// ErrSplitFailed indicates the source could not be decoded or cut.
// Fatal for the run; no partial split is ever used.
var ErrSplitFailed = errors.New("audio split failed")
