// Package format classifies and sanitizes playback lines for display.
package format

import (
	"strings"

	"pkt.systems/yukora/schema"
)

type rule struct {
	style  schema.StyleTag
	prefix []string
	marker []string
}

// Rules are tried in order; the first match wins.
var rules = []rule{
	{style: schema.StyleEcho, prefix: []string{schema.EchoPrefix, "$ "}},
	{style: schema.StyleError, prefix: []string{"[ERROR]", "[CRITICAL]", "error:"}, marker: []string{"ACCESS DENIED", "Access Denied"}},
	{style: schema.StyleWarn, prefix: []string{"[!]", "[WARN]", schema.NoticePrefix}},
	{style: schema.StyleSuccess, prefix: []string{"[SUCCESS]", "[+]"}, marker: []string{"SUCCESS", "[MATCH]", "PASSED"}},
	{style: schema.StylePrune, prefix: []string{"[PRUNE]"}},
	{style: schema.StyleComment, prefix: []string{"//", "#"}},
	{style: schema.StyleInfo, prefix: []string{">>", "[-]", "[*]", "[DETONATE]", "[BASELINE]", "[INTEL]", "[NEMO]", "[1]", "[2]", "[3]"}},
}

// Classify derives the presentation style of a line from its text. It has no
// effect on playback.
func Classify(line string) schema.StyleTag {
	text := strings.TrimLeft(line, " \t")
	for _, r := range rules {
		for _, p := range r.prefix {
			if strings.HasPrefix(text, p) {
				return r.style
			}
		}
		for _, m := range r.marker {
			if strings.Contains(text, m) {
				return r.style
			}
		}
	}
	return schema.StylePlain
}
