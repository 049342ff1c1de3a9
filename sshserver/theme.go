package sshserver

import (
	"strconv"

	"pkt.systems/yukora/schema"
)

type rgb struct {
	r int
	g int
	b int
}

type tuiTheme struct {
	Name      schema.ThemeName
	BarBG     rgb
	BarFG     rgb
	BadgeBG   rgb
	BadgeFG   rgb
	BusyBG    rgb
	PromptFG  rgb
	SpinnerFG rgb
	NoticeFG  rgb
	EchoFG    rgb
	SuccessFG rgb
	ErrorFG   rgb
	WarnFG    rgb
	PruneFG   rgb
	InfoFG    rgb
	CommentFG rgb
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiItalic = "\x1b[3m"
)

var tuiThemes = map[schema.ThemeName]tuiTheme{
	"outrun": {
		Name:      "outrun",
		BarBG:     rgb{r: 32, g: 8, b: 56},
		BarFG:     rgb{r: 240, g: 241, b: 255},
		BadgeBG:   rgb{r: 0, g: 229, b: 255},
		BadgeFG:   rgb{r: 10, g: 13, b: 23},
		BusyBG:    rgb{r: 255, g: 91, b: 189},
		PromptFG:  rgb{r: 255, g: 255, b: 255},
		SpinnerFG: rgb{r: 110, g: 136, b: 255},
		NoticeFG:  rgb{r: 154, g: 182, b: 255},
		EchoFG:    rgb{r: 255, g: 255, b: 255},
		SuccessFG: rgb{r: 57, g: 255, b: 136},
		ErrorFG:   rgb{r: 255, g: 107, b: 107},
		WarnFG:    rgb{r: 255, g: 200, b: 87},
		PruneFG:   rgb{r: 154, g: 163, b: 178},
		InfoFG:    rgb{r: 112, g: 214, b: 255},
		CommentFG: rgb{r: 110, g: 136, b: 255},
	},
	"gruvbox": {
		Name:      "gruvbox",
		BarBG:     rgb{r: 60, g: 56, b: 54},
		BarFG:     rgb{r: 235, g: 219, b: 178},
		BadgeBG:   rgb{r: 250, g: 189, b: 47},
		BadgeFG:   rgb{r: 40, g: 40, b: 40},
		BusyBG:    rgb{r: 214, g: 93, b: 14},
		PromptFG:  rgb{r: 255, g: 255, b: 255},
		SpinnerFG: rgb{r: 131, g: 165, b: 152},
		NoticeFG:  rgb{r: 131, g: 165, b: 152},
		EchoFG:    rgb{r: 251, g: 241, b: 199},
		SuccessFG: rgb{r: 184, g: 187, b: 38},
		ErrorFG:   rgb{r: 251, g: 73, b: 52},
		WarnFG:    rgb{r: 250, g: 189, b: 47},
		PruneFG:   rgb{r: 146, g: 131, b: 116},
		InfoFG:    rgb{r: 131, g: 165, b: 152},
		CommentFG: rgb{r: 211, g: 134, b: 155},
	},
	"tokyo-midnight": {
		Name:      "tokyo-midnight",
		BarBG:     rgb{r: 26, g: 27, b: 38},
		BarFG:     rgb{r: 192, g: 202, b: 245},
		BadgeBG:   rgb{r: 122, g: 162, b: 247},
		BadgeFG:   rgb{r: 26, g: 27, b: 38},
		BusyBG:    rgb{r: 187, g: 154, b: 247},
		PromptFG:  rgb{r: 255, g: 255, b: 255},
		SpinnerFG: rgb{r: 122, g: 162, b: 247},
		NoticeFG:  rgb{r: 125, g: 207, b: 255},
		EchoFG:    rgb{r: 192, g: 202, b: 245},
		SuccessFG: rgb{r: 158, g: 206, b: 106},
		ErrorFG:   rgb{r: 247, g: 118, b: 142},
		WarnFG:    rgb{r: 224, g: 175, b: 104},
		PruneFG:   rgb{r: 86, g: 95, b: 137},
		InfoFG:    rgb{r: 125, g: 207, b: 255},
		CommentFG: rgb{r: 187, g: 154, b: 247},
	},
}

func themeForName(name schema.ThemeName) tuiTheme {
	if name == "" {
		name = schema.DefaultTheme
	}
	if theme, ok := tuiThemes[name]; ok {
		return theme
	}
	return tuiThemes[schema.DefaultTheme]
}

// styleFor returns the ANSI prefix for a line style. Plain lines are unstyled.
func (t tuiTheme) styleFor(tag schema.StyleTag) string {
	switch tag {
	case schema.StyleEcho:
		return ansiBold + ansiFgRGB(t.EchoFG)
	case schema.StyleSuccess:
		return ansiBold + ansiFgRGB(t.SuccessFG)
	case schema.StyleError:
		return ansiBold + ansiFgRGB(t.ErrorFG)
	case schema.StyleWarn:
		return ansiFgRGB(t.WarnFG)
	case schema.StylePrune:
		return ansiDim + ansiFgRGB(t.PruneFG)
	case schema.StyleInfo:
		return ansiFgRGB(t.InfoFG)
	case schema.StyleComment:
		return ansiItalic + ansiFgRGB(t.CommentFG)
	default:
		return ""
	}
}

func ansiFgRGB(c rgb) string {
	return "\x1b[38;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}

func ansiBgRGB(c rgb) string {
	return "\x1b[48;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}
