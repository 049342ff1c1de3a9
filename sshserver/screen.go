package sshserver

import (
	"fmt"
	"io"
	"strings"
)

// screen paints full frames on the alternate screen. Identical frames are
// skipped.
type screen struct {
	out  io.Writer
	last string
}

func newScreen(out io.Writer) *screen {
	return &screen{out: out}
}

func (s *screen) EnterAltScreen() {
	_, _ = io.WriteString(s.out, "\x1b[?1049h\x1b[H\x1b[2J")
}

func (s *screen) ExitAltScreen() {
	_, _ = io.WriteString(s.out, "\x1b[?1049l\x1b[?25h")
}

// Invalidate forces the next Render to repaint.
func (s *screen) Invalidate() {
	s.last = ""
}

func (s *screen) Render(lines []string, cursorRow, cursorCol int, showCursor bool) error {
	cursorRow = max(cursorRow, 1)
	cursorCol = max(cursorCol, 1)
	var b strings.Builder
	b.WriteString("\x1b[?25l\x1b[H\x1b[2J")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(line)
	}
	fmt.Fprintf(&b, "\x1b[%d;%dH", cursorRow, cursorCol)
	if showCursor {
		b.WriteString("\x1b[?25h")
	}
	frame := b.String()
	if frame == s.last {
		return nil
	}
	s.last = frame
	_, err := io.WriteString(s.out, frame)
	return err
}
