package transcribe

// Internal functions exposed for black-box testing.
var ClassifyError = classifyError
