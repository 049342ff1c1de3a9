package format

import (
	"bytes"
	"testing"

	"pkt.systems/yukora/schema"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		want schema.StyleTag
	}{
		{"> ethereal infer --model resnet50", schema.StyleEcho},
		{"$ forge recursive run --seed etl_logic.zip", schema.StyleEcho},
		{"[DETONATE] Propagating runtime from seed...", schema.StyleInfo},
		{"[PRUNE] Task:Extract complete. Node shredded.", schema.StylePrune},
		{"[BASELINE] Verifying repo footprint: 0B Drift.", schema.StyleInfo},
		{"// Implosion complete. System at Zero Baseline.", schema.StyleComment},
		{">> Verifying hardware-rooted identity...", schema.StyleInfo},
		{">> Identity: 0x7A4F... [MATCH]", schema.StyleSuccess},
		{">> SUCCESS: 100% RECOVERY COMPLETE.", schema.StyleSuccess},
		{"[SUCCESS] Hardware verified. Vault unlocked.", schema.StyleSuccess},
		{"[CRITICAL] ACCESS DENIED: Hardware signature does not match", schema.StyleError},
		{"[!] Existing Identity Block Found", schema.StyleWarn},
		{"!! unknown script: nope", schema.StyleWarn},
		{"Access Granted to Yukora Suite.", schema.StylePlain},
		{"", schema.StylePlain},
	}
	for _, tc := range cases {
		if got := Classify(tc.line); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.line, got, tc.want)
		}
	}
}

func TestSanitizeStripsEscapes(t *testing.T) {
	in := "\x1b[31mred\x1b[0m\ttab\x07\x1b]0;title\x07!"
	if got := Sanitize(in); got != "red    tab!" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestVisibleWidthAndTrim(t *testing.T) {
	styled := "\x1b[1mhello\x1b[0m world"
	if got := VisibleWidth(styled); got != 11 {
		t.Fatalf("expected width 11, got %d", got)
	}
	trimmed := TrimToWidth(styled, 3)
	if VisibleWidth(trimmed) != 3 {
		t.Fatalf("expected 3 visible runes, got %q", trimmed)
	}
	if TrimToWidth(styled, 0) != "" {
		t.Fatalf("expected empty string for zero width")
	}
}

func TestPlainRendererWritesLines(t *testing.T) {
	var buf bytes.Buffer
	r := &PlainRenderer{ShowStyle: true}
	if err := r.WriteLines(&buf, []string{"$ forge", "[PRUNE] done"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "[echo] $ forge\n[prune] [PRUNE] done\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if got := NewPlainRenderer().FormatLine("\x1b[2Jplain"); got != "plain" {
		t.Fatalf("expected sanitized plain line, got %q", got)
	}
}
