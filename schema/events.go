package schema

// OutputEvent carries lines revealed by a playback session.
type OutputEvent struct {
	ConsoleID ConsoleID
	SessionID SessionID
	// Index is the position of the first line within the session log.
	Index int
	Lines []string
}

// StatusEvent reports a status transition of a console.
type StatusEvent struct {
	ConsoleID ConsoleID
	SessionID SessionID
	Status    Status
	// Script names the script being played, empty for console submissions.
	Script ScriptName
}

// ConsoleEventType describes console lifecycle changes.
type ConsoleEventType string

const (
	// ConsoleEventOpened indicates a console was created.
	ConsoleEventOpened ConsoleEventType = "opened"
	// ConsoleEventClosed indicates a console was torn down.
	ConsoleEventClosed ConsoleEventType = "closed"
)

// ConsoleEvent reports console lifecycle changes.
type ConsoleEvent struct {
	ConsoleID ConsoleID
	Type      ConsoleEventType
}
