package audio

// Internal functions exposed for black-box testing.
var (
	ComputeBoundaries             = computeBoundaries
	ParseDurationFromFFmpegOutput = parseDurationFromFFmpegOutput
	FormatFFmpegTime              = formatFFmpegTime
)
