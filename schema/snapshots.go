package schema

// LogSnapshot is the observable state of a console: its visible log and status.
type LogSnapshot struct {
	ConsoleID    ConsoleID `json:"console_id"`
	SessionID    SessionID `json:"session_id,omitempty"`
	Status       Status    `json:"status"`
	Lines        []string  `json:"lines"`
	TotalLines   int       `json:"total_lines"`
	ScrollOffset int       `json:"scroll_offset"`
	AtBottom     bool      `json:"at_bottom"`
	// InputEnabled reports whether the console would accept a submission.
	InputEnabled bool `json:"input_enabled"`
	// Draft is the pending input text; it is cleared by every submission.
	Draft    string           `json:"draft"`
	Controls []TriggerControl `json:"controls,omitempty"`
}

// TriggerControl is the control surface state of one catalog script.
type TriggerControl struct {
	Script  ScriptName `json:"script"`
	Label   string     `json:"label"`
	Enabled bool       `json:"enabled"`
}

// ScriptSummary describes a catalog script for listings.
type ScriptSummary struct {
	Name     ScriptName `json:"name"`
	Title    string     `json:"title"`
	Lines    int        `json:"lines"`
	Duration string     `json:"duration"`
}

// RouteSummary describes a console route in priority order.
type RouteSummary struct {
	Name    string     `json:"name"`
	Matcher string     `json:"matcher"`
	Script  ScriptName `json:"script"`
}

// SummarizeScript builds the listing entry for a script.
func SummarizeScript(script Script) ScriptSummary {
	return ScriptSummary{
		Name:     script.Name,
		Title:    script.Title,
		Lines:    len(script.Entries),
		Duration: script.Duration().String(),
	}
}
