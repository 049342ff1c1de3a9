package sshserver

import (
	"strconv"
	"strings"
	"unicode"

	"pkt.systems/yukora/internal/format"
	"pkt.systems/yukora/schema"
)

// barState is the data shown on the top status line.
type barState struct {
	consoleID schema.ConsoleID
	status    schema.Status
	script    schema.ScriptName
	scrolled  int
}

func renderStatusBar(state barState, width int, theme tuiTheme) string {
	if width <= 0 {
		width = 80
	}
	barStyle := ansiBgRGB(theme.BarBG) + ansiFgRGB(theme.BarFG)
	badgeStyle := ansiBgRGB(theme.BadgeBG) + ansiFgRGB(theme.BadgeFG) + ansiBold
	busyStyle := ansiBgRGB(theme.BusyBG) + ansiFgRGB(theme.BadgeFG) + ansiBold

	var left strings.Builder
	left.WriteString(badgeStyle)
	left.WriteString(" yukora ")
	left.WriteString(barStyle)
	if state.consoleID != "" {
		left.WriteString(" " + string(state.consoleID) + " ")
	}

	var right strings.Builder
	if state.scrolled > 0 {
		right.WriteString(barStyle)
		right.WriteString(" +" + strconv.Itoa(state.scrolled) + " ")
	}
	label := " " + state.status.String() + " "
	if state.status == schema.StatusRunning {
		if state.script != "" {
			label = " running " + string(state.script) + " "
		}
		right.WriteString(busyStyle)
	} else {
		right.WriteString(badgeStyle)
	}
	right.WriteString(label)

	leftText := left.String()
	rightText := right.String()
	pad := width - format.VisibleWidth(leftText) - format.VisibleWidth(rightText)
	if pad < 0 {
		line := format.TrimToWidth(leftText+rightText, width)
		return line + ansiReset
	}
	return leftText + barStyle + strings.Repeat(" ", pad) + rightText + ansiReset
}

// renderLines wraps one log line to width and colours it by its style tag.
func renderLines(raw string, width int, theme tuiTheme) []string {
	lines := wrapPlainLines(raw, width)
	style := theme.styleFor(format.Classify(raw))
	if style == "" {
		return lines
	}
	styled := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			styled = append(styled, line)
			continue
		}
		styled = append(styled, style+line+ansiReset)
	}
	return styled
}

func renderNoticeLines(raw string, width int, theme tuiTheme) []string {
	lines := wrapPlainLines(raw, width)
	for i, line := range lines {
		if line != "" {
			lines[i] = ansiFgRGB(theme.NoticeFG) + line + ansiReset
		}
	}
	return lines
}

// renderViewport fits the log and the notices into height rows. When the log
// is at its bottom the tail is kept, otherwise the head.
func renderViewport(logLines, notices []string, width, height int, theme tuiTheme, atBottom bool) []string {
	if height <= 0 {
		return nil
	}
	var flattened []string
	for _, raw := range logLines {
		flattened = append(flattened, renderLines(raw, width, theme)...)
	}
	for _, raw := range notices {
		flattened = append(flattened, renderNoticeLines(raw, width, theme)...)
	}
	if len(flattened) > height {
		if atBottom {
			flattened = flattened[len(flattened)-height:]
		} else {
			flattened = flattened[:height]
		}
	}
	rendered := make([]string, 0, height)
	rendered = append(rendered, flattened...)
	for len(rendered) < height {
		rendered = append(rendered, "")
	}
	return rendered
}

type textToken struct {
	text  string
	space bool
}

func tokenizeText(text string) []textToken {
	var tokens []textToken
	var buf strings.Builder
	inSpace := false
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		tokens = append(tokens, textToken{text: buf.String(), space: inSpace})
		buf.Reset()
	}
	for _, r := range text {
		space := unicode.IsSpace(r)
		if space != inSpace {
			flush()
			inSpace = space
		}
		if space {
			r = ' '
		}
		buf.WriteRune(r)
	}
	flush()
	return tokens
}

// wrapPlainLines sanitizes text and word-wraps it to width runes. Words longer
// than width are split.
func wrapPlainLines(text string, width int) []string {
	if width <= 0 {
		return []string{""}
	}
	sanitized := format.Sanitize(text)
	if sanitized == "" {
		return []string{""}
	}
	lines := make([]string, 0, 2)
	var b strings.Builder
	visible := 0
	wrapped := false
	flush := func() {
		if b.Len() == 0 {
			return
		}
		lines = append(lines, b.String())
		b.Reset()
		visible = 0
		wrapped = true
	}
	for _, token := range tokenizeText(sanitized) {
		runes := []rune(token.text)
		if token.space {
			if visible == 0 && wrapped {
				continue
			}
			if visible+len(runes) > width {
				flush()
				continue
			}
			b.WriteString(token.text)
			visible += len(runes)
			continue
		}
		if visible > 0 && visible+len(runes) > width {
			flush()
		}
		for len(runes) > width-visible {
			take := width - visible
			b.WriteString(string(runes[:take]))
			runes = runes[take:]
			flush()
		}
		b.WriteString(string(runes))
		visible += len(runes)
	}
	flush()
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// renderInputLines lays out the prompt and input, wrapping at width, and
// reports the 1-based cursor position relative to the first input row.
func renderInputLines(prefix, input string, cursor, width int) ([]string, int, int) {
	runes := []rune(input)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}
	prefixWidth := format.VisibleWidth(prefix)
	if width <= 0 {
		width = prefixWidth + len(runes) + 1
	}
	if prefixWidth >= width {
		prefix = format.TrimToWidth(prefix, width-1) + ansiReset
		prefixWidth = format.VisibleWidth(prefix)
	}
	avail := width - prefixWidth
	if avail < 1 {
		avail = 1
	}
	indent := strings.Repeat(" ", prefixWidth)

	var lines []string
	for start := 0; ; start += avail {
		end := start + avail
		if end > len(runes) {
			end = len(runes)
		}
		lead := prefix
		if start > 0 {
			lead = indent
		}
		lines = append(lines, lead+string(runes[start:end]))
		if end >= len(runes) {
			break
		}
	}
	row := cursor/avail + 1
	col := prefixWidth + cursor%avail + 1
	if row > len(lines) {
		// Cursor sits just past a full last row.
		lines = append(lines, indent)
	}
	if col > width {
		col = width
	}
	return lines, row, col
}

func stylePromptPrefix(prefix string, theme tuiTheme) string {
	if prefix == "" {
		return ""
	}
	first := []rune(prefix)[0]
	for _, frame := range spinnerFrames {
		if first == frame {
			return ansiFgRGB(theme.SpinnerFG) + string(first) + ansiReset + string([]rune(prefix)[1:])
		}
	}
	trimmed := strings.TrimRight(prefix, " ")
	return ansiBold + ansiFgRGB(theme.PromptFG) + trimmed + ansiReset + prefix[len(trimmed):]
}
