package schema

import (
	"fmt"
	"time"
)

// ConsoleID identifies one console instance (one hosting view).
type ConsoleID string

// SessionID identifies one playback session within a console.
type SessionID string

// ScriptName identifies a script in the catalog.
type ScriptName string

// ThemeName identifies a terminal theme.
type ThemeName string

// Status is the running state shared by every wrapper of an emitter.
type Status int

const (
	// StatusIdle accepts new triggers and submissions.
	StatusIdle Status = iota
	// StatusRunning rejects triggers until the last entry is visible.
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalText renders the status for JSON transports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "idle" or "running".
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StatusIdle
	case "running":
		*s = StatusRunning
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidRequest, text)
	}
	return nil
}

// ScriptEntry is one line of simulated output.
// Delay is the wait after the previous entry; the first entry waits from trigger time.
type ScriptEntry struct {
	Text  string
	Delay time.Duration
}

// Script is an ordered, immutable list of timed entries.
type Script struct {
	Name    ScriptName
	Title   string
	Entries []ScriptEntry
}

// Clone returns a deep copy of the script.
func (s Script) Clone() Script {
	out := s
	out.Entries = append([]ScriptEntry(nil), s.Entries...)
	return out
}

// Duration returns the total playback time of the script.
func (s Script) Duration() time.Duration {
	var total time.Duration
	for _, entry := range s.Entries {
		total += entry.Delay
	}
	return total
}

// StyleTag classifies a line for presentation only.
type StyleTag string

const (
	// StylePlain is an unmarked line.
	StylePlain StyleTag = "plain"
	// StyleEcho is an echoed command line.
	StyleEcho StyleTag = "echo"
	// StyleSuccess highlights completed work.
	StyleSuccess StyleTag = "success"
	// StyleError marks failures.
	StyleError StyleTag = "error"
	// StyleWarn marks warnings.
	StyleWarn StyleTag = "warn"
	// StylePrune is muted cleanup output.
	StylePrune StyleTag = "prune"
	// StyleInfo marks verification and progress lines.
	StyleInfo StyleTag = "info"
	// StyleComment is narrative text.
	StyleComment StyleTag = "comment"
)
