package core

// logView is a snapshot of a visible log.
type logView struct {
	Lines        []string
	TotalLines   int
	ScrollOffset int
	AtBottom     bool
}

// visibleLog stores revealed lines and scroll state for one console.
// scrollOffset is the number of lines from the bottom; 0 means at bottom.
type visibleLog struct {
	lines        []string
	scrollOffset int
	maxLines     int
	// limit is the cap for the current session, never below the session length.
	limit int
}

func newVisibleLog(maxLines int) *visibleLog {
	return &visibleLog{maxLines: maxLines, limit: maxLines}
}

// Append adds lines to the log. If the view is scrolled up, the scroll offset
// grows with it so the view stays anchored.
func (b *visibleLog) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	b.lines = append(b.lines, lines...)
	if b.scrollOffset > 0 {
		b.scrollOffset += len(lines)
	}
	if b.limit > 0 && len(b.lines) > b.limit {
		trim := len(b.lines) - b.limit
		b.lines = append([]string(nil), b.lines[trim:]...)
		if b.scrollOffset > len(b.lines) {
			b.scrollOffset = len(b.lines)
		}
	}
}

// Reset clears the log at the start of a session of sessionLines entries.
// The cap is raised for that session so a completed script is always whole.
func (b *visibleLog) Reset(sessionLines int) {
	b.lines = nil
	b.scrollOffset = 0
	b.limit = b.maxLines
	if b.limit > 0 {
		b.limit = max(b.limit, sessionLines)
	}
}

// Len reports how many lines are visible.
func (b *visibleLog) Len() int {
	return len(b.lines)
}

// Lines returns a copy of every visible line.
func (b *visibleLog) Lines() []string {
	return append([]string(nil), b.lines...)
}

// Scroll adjusts the scroll offset by delta. Positive delta scrolls up (older lines),
// negative delta scrolls down. Limit is the viewport height.
func (b *visibleLog) Scroll(delta, limit int) {
	b.scrollOffset = clampScroll(b.scrollOffset+delta, len(b.lines), limit)
}

// Snapshot returns a view of the log for the given viewport limit.
func (b *visibleLog) Snapshot(limit int) logView {
	total := len(b.lines)
	if limit <= 0 || limit > total {
		limit = total
	}
	if max := maxScroll(total, limit); b.scrollOffset > max {
		b.scrollOffset = max
	}
	end := total - b.scrollOffset
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	lines := make([]string, end-start)
	copy(lines, b.lines[start:end])
	return logView{
		Lines:        lines,
		TotalLines:   total,
		ScrollOffset: b.scrollOffset,
		AtBottom:     b.scrollOffset == 0,
	}
}

func maxScroll(total, limit int) int {
	if total <= 0 || limit <= 0 || total <= limit {
		return 0
	}
	return total - limit
}

func clampScroll(offset, total, limit int) int {
	max := maxScroll(total, limit)
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}
