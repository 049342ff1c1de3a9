package main

import (
	"github.com/charmbracelet/lipgloss"

	"pkt.systems/yukora/internal/format"
	"pkt.systems/yukora/schema"
)

type palette struct {
	bar, barFG     lipgloss.Color
	badge, badgeFG lipgloss.Color
	busy           lipgloss.Color
	prompt         lipgloss.Color
	notice         lipgloss.Color
	echo           lipgloss.Color
	success        lipgloss.Color
	err            lipgloss.Color
	warn           lipgloss.Color
	prune          lipgloss.Color
	info           lipgloss.Color
	comment        lipgloss.Color
}

var palettes = map[schema.ThemeName]palette{
	"outrun": {
		bar: "#200838", barFG: "#F0F1FF",
		badge: "#00E5FF", badgeFG: "#0A0D17",
		busy:    "#FF5BBD",
		prompt:  "#FFFFFF",
		notice:  "#9AB6FF",
		echo:    "#FFFFFF",
		success: "#39FF88",
		err:     "#FF6B6B",
		warn:    "#FFC857",
		prune:   "#9AA3B2",
		info:    "#70D6FF",
		comment: "#6E88FF",
	},
	"gruvbox": {
		bar: "#3C3836", barFG: "#EBDBB2",
		badge: "#FABD2F", badgeFG: "#282828",
		busy:    "#D65D0E",
		prompt:  "#FFFFFF",
		notice:  "#83A598",
		echo:    "#FBF1C7",
		success: "#B8BB26",
		err:     "#FB4934",
		warn:    "#FABD2F",
		prune:   "#928374",
		info:    "#83A598",
		comment: "#D3869B",
	},
	"tokyo-midnight": {
		bar: "#1A1B26", barFG: "#C0CAF5",
		badge: "#7AA2F7", badgeFG: "#1A1B26",
		busy:    "#BB9AF7",
		prompt:  "#FFFFFF",
		notice:  "#7DCFFF",
		echo:    "#C0CAF5",
		success: "#9ECE6A",
		err:     "#F7768E",
		warn:    "#E0AF68",
		prune:   "#565F89",
		info:    "#7DCFFF",
		comment: "#BB9AF7",
	},
}

// lineRenderer turns a raw playback line into printable text.
type lineRenderer interface {
	FormatLine(line string) string
}

type styles struct {
	lines  map[schema.StyleTag]lipgloss.Style
	bar    lipgloss.Style
	badge  lipgloss.Style
	idle   lipgloss.Style
	busy   lipgloss.Style
	notice lipgloss.Style
	prompt lipgloss.Style
}

func newStyles(theme schema.ThemeName) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[schema.DefaultTheme]
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return styles{
		lines: map[schema.StyleTag]lipgloss.Style{
			schema.StylePlain:   lipgloss.NewStyle(),
			schema.StyleEcho:    fg(p.echo).Bold(true),
			schema.StyleSuccess: fg(p.success),
			schema.StyleError:   fg(p.err).Bold(true),
			schema.StyleWarn:    fg(p.warn),
			schema.StylePrune:   fg(p.prune).Faint(true),
			schema.StyleInfo:    fg(p.info),
			schema.StyleComment: fg(p.comment).Italic(true),
		},
		bar:    lipgloss.NewStyle().Background(p.bar).Foreground(p.barFG),
		badge:  lipgloss.NewStyle().Background(p.badge).Foreground(p.badgeFG).Bold(true).Padding(0, 1),
		idle:   lipgloss.NewStyle().Background(p.bar).Foreground(p.barFG).Padding(0, 1),
		busy:   lipgloss.NewStyle().Background(p.busy).Foreground(p.badgeFG).Bold(true).Padding(0, 1),
		notice: fg(p.notice),
		prompt: fg(p.prompt).Bold(true),
	}
}

// FormatLine styles a line by its classification.
func (s styles) FormatLine(line string) string {
	style, ok := s.lines[format.Classify(line)]
	if !ok {
		return format.Sanitize(line)
	}
	return style.Render(format.Sanitize(line))
}
