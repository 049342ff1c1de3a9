package schema

// Console lifecycle.

// OpenConsoleRequest describes a request to create a console.
type OpenConsoleRequest struct {
	// Owner is a free-form label for logs (ssh user, http remote).
	Owner string
}

// OpenConsoleResponse reports the created console.
type OpenConsoleResponse struct {
	ConsoleID ConsoleID
}

// CloseConsoleRequest describes a request to tear down a console.
type CloseConsoleRequest struct {
	ConsoleID ConsoleID
}

// Playback.

// TriggerRequest starts a catalog script on a console.
type TriggerRequest struct {
	ConsoleID ConsoleID
	Script    ScriptName
}

// TriggerResponse reports whether the trigger was accepted.
type TriggerResponse struct {
	Accepted  bool      `json:"accepted"`
	SessionID SessionID `json:"session_id,omitempty"`
	Status    Status    `json:"status"`
}

// SubmitRequest submits free text to a console.
type SubmitRequest struct {
	ConsoleID ConsoleID
	Input     string
}

// SubmitResponse reports whether the submission started a session.
type SubmitResponse struct {
	Accepted  bool      `json:"accepted"`
	SessionID SessionID `json:"session_id,omitempty"`
	Route     string    `json:"route,omitempty"`
	Status    Status    `json:"status"`
}

// SetDraftRequest replaces the pending input text of a console.
type SetDraftRequest struct {
	ConsoleID ConsoleID
	Text      string
}

// Log views.

// GetLogRequest describes a request for a console log snapshot.
type GetLogRequest struct {
	ConsoleID ConsoleID
	Limit     int
}

// GetLogResponse reports the console log snapshot.
type GetLogResponse struct {
	Log LogSnapshot
}

// ScrollLogRequest adjusts the scroll offset of a console log view.
type ScrollLogRequest struct {
	ConsoleID ConsoleID
	Delta     int
	Limit     int
}

// ScrollLogResponse reports the updated snapshot.
type ScrollLogResponse struct {
	Log LogSnapshot
}

// Catalog.

// ListScriptsResponse reports available triggered scripts and console routes.
type ListScriptsResponse struct {
	Scripts []ScriptSummary `json:"scripts"`
	Routes  []RouteSummary  `json:"routes"`
}
