package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSessionRunning indicates a playback is in flight and the request was rejected.
	ErrSessionRunning = errors.New("playback already running")
	// ErrEmptyInput indicates a blank command submission.
	ErrEmptyInput = errors.New("empty input")
	// ErrEmptyScript indicates a script without entries.
	ErrEmptyScript = errors.New("script has no entries")
	// ErrInvalidScript indicates a malformed script definition.
	ErrInvalidScript = errors.New("invalid script")
	// ErrInvalidScriptName indicates an invalid script identifier.
	ErrInvalidScriptName = errors.New("invalid script name")
	// ErrUnknownScript indicates a script could not be found.
	ErrUnknownScript = errors.New("unknown script")
	// ErrConsoleNotFound indicates a requested console could not be found.
	ErrConsoleNotFound = errors.New("console not found")
	// ErrConsoleClosed indicates the console has been torn down.
	ErrConsoleClosed = errors.New("console closed")
	// ErrConsoleLimit indicates the maximum number of open consoles was reached.
	ErrConsoleLimit = errors.New("too many open consoles")
)
