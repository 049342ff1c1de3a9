package format

import (
	"fmt"
	"io"
)

// PlainRenderer formats lines for output without colour.
type PlainRenderer struct {
	// ShowStyle prefixes each line with its style tag.
	ShowStyle bool
}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// FormatLine sanitizes a line and applies the optional style prefix.
func (p *PlainRenderer) FormatLine(line string) string {
	text := Sanitize(line)
	if !p.ShowStyle {
		return text
	}
	return fmt.Sprintf("[%s] %s", Classify(line), text)
}

// WriteLines writes each formatted line followed by a newline.
func (p *PlainRenderer) WriteLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := io.WriteString(w, p.FormatLine(line)+"\n"); err != nil {
			return err
		}
	}
	return nil
}
