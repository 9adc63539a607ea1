package report

import (
	"fmt"
	"strings"
	"time"
)

// Urgency glyphs shown in the report heading. Unknown urgency values fall
// back to the generic warning glyph; the urgency string itself is never
// validated, only uppercased and echoed.
var urgencyGlyphs = map[string]string{
	"Low":    "🟢",
	"Medium": "🟠",
	"High":   "🔴",
}

const genericGlyph = "🚨"

const (
	banner          = "🚨 EMERGENCY RESPONSE ANALYSIS 🚨"
	closingLine     = "⚠️ URGENT ACTION REQUIRED ⚠️"
	timestampLayout = "2006-01-02 15:04:05"
)

// Glyph returns the urgency tier glyph by exact-match lookup.
func Glyph(urgency string) string {
	if g, ok := urgencyGlyphs[urgency]; ok {
		return g
	}
	return genericGlyph
}

// Formatter renders raw model output into the display report. The clock is
// injectable so tests can pin the timestamp line; everything else is a
// pure function of the input.
type Formatter struct {
	now func() time.Time
}

// NewFormatter creates a formatter using the wall clock.
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// NewFormatterWithClock creates a formatter with a fixed clock source.
func NewFormatterWithClock(now func() time.Time) *Formatter {
	return &Formatter{now: now}
}

// Format produces the full display report for raw model output:
// urgency heading, banner, each located section re-indented with bullet
// normalization, a generated timestamp, and the closing admonition.
// Sections missing from the raw text are silently omitted.
func (f *Formatter) Format(raw, urgency string) string {
	lines := []string{
		fmt.Sprintf("%s %s THREAT LEVEL", Glyph(urgency), strings.ToUpper(urgency)),
		"",
		banner,
		strings.Repeat("=", 40),
	}

	for _, section := range ParseSections(raw) {
		lines = append(lines, "\n"+renderSection(section))
	}

	lines = append(lines,
		"\n🕒 Analysis Timestamp: "+f.now().Format(timestampLayout),
		closingLine,
	)

	return strings.Join(lines, "\n")
}

// renderSection formats one section: uppercased title under a rule, then
// the body with "-" lines turned into bullets, other non-empty lines
// indented, and empty lines dropped.
func renderSection(section Section) string {
	out := []string{
		"🔍 " + strings.ToUpper(section.Title),
		strings.Repeat("-", 50),
	}

	for _, line := range strings.Split(section.Body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "-"):
			out = append(out, "   • "+strings.TrimSpace(strings.TrimPrefix(line, "-")))
		case line != "":
			out = append(out, "   "+line)
		}
	}

	return strings.Join(out, "\n")
}
