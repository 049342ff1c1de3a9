package schema

import (
	"fmt"
	"strings"
)

// NormalizeScriptName validates and normalizes a script identifier.
// Allowed characters: a-z, 0-9, '.', '_', '-'. Input is lowercased.
func NormalizeScriptName(name string) (ScriptName, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return "", ErrInvalidScriptName
	}
	for _, r := range trimmed {
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			continue
		}
		return "", ErrInvalidScriptName
	}
	return ScriptName(trimmed), nil
}

// ValidateScript checks that a script can be played.
func ValidateScript(script Script) error {
	if len(script.Entries) == 0 {
		return fmt.Errorf("%s: %w", script.Name, ErrEmptyScript)
	}
	for i, entry := range script.Entries {
		if entry.Delay < 0 {
			return fmt.Errorf("%s entry %d: negative delay: %w", script.Name, i, ErrInvalidScript)
		}
	}
	return nil
}
