// Package report implements the analysis-text pipeline: building the
// completion prompt from a submitted emergency report, parsing the model's
// answer into its known sections, and rendering the human-readable report
// shown in the UI.
package report

import "strings"

// SectionTitles are the four sub-report headings the model is instructed
// to produce, in the fixed order they are rendered.
var SectionTitles = []string{
	"Potential Disaster Type Classification",
	"Severity Assessment",
	"Recommended Emergency Response",
	"Resource Allocation Suggestions",
}

// sectionDelimiter terminates a section body in the raw model output.
const sectionDelimiter = "####"

// Section is one located sub-report: its canonical title and the raw body
// text between the title line and the next delimiter.
type Section struct {
	Title string
	Body  string
}

// ParseSections locates the canonical sections inside raw model output.
//
// For each title, in order: the title is matched case-insensitively and
// only its first occurrence is used — later occurrences are ignored by
// policy, not by accident. The body runs from the character after the
// first line break following the title up to the next "####" delimiter,
// or to the end of the text when no delimiter follows. A title with no
// line break after it yields an empty body. Titles absent from the text
// are omitted from the result; that is expected behavior, not an error.
func ParseSections(raw string) []Section {
	lower := strings.ToLower(raw)

	var sections []Section
	for _, title := range SectionTitles {
		start := strings.Index(lower, strings.ToLower(title))
		if start < 0 {
			continue
		}

		var body string
		rest := raw[start:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			body = rest[nl+1:]
			if end := strings.Index(body, sectionDelimiter); end >= 0 {
				body = body[:end]
			}
		}

		sections = append(sections, Section{
			Title: title,
			Body:  strings.TrimSpace(body),
		})
	}
	return sections
}
