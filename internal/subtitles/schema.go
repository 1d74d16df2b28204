package subtitles

import "strings"

// Schema captures the field layout of one script, discovered before any
// rewriting happens. Indices are -1 when the script never declares the
// corresponding Format: line; such scripts pass through untouched.
type Schema struct {
	StylesHeader string
	NameIndex    int
	StyleIndex   int
}

// Complete reports whether both field positions were discovered.
func (s Schema) Complete() bool {
	return s.NameIndex >= 0 && s.StyleIndex >= 0
}

func isStylesHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "[") &&
		strings.Contains(trimmed, "Styles]")
}

func isEventsHeader(line string) bool {
	return strings.TrimSpace(line) == "[Events]"
}

func formatFields(line string) []string {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Format:"))
	parts := strings.Split(rest, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func fieldIndex(fields []string, name string) int {
	for i, field := range fields {
		if field == name {
			return i
		}
	}
	return -1
}

// ParseSchema scans the script for the style and event Format: lines and
// records where the style name and the dialogue style reference live. The
// scan never mutates anything.
func ParseSchema(script string) Schema {
	schema := Schema{NameIndex: -1, StyleIndex: -1}

	section := ""
	for _, raw := range splitLines(script) {
		line := strings.TrimRight(raw, "\r")
		switch {
		case isStylesHeader(line):
			section = "styles"
			schema.StylesHeader = strings.TrimSpace(line)
			continue
		case isEventsHeader(line):
			section = "events"
			continue
		case strings.HasPrefix(strings.TrimSpace(line), "["):
			section = ""
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(line), "Format:") {
			continue
		}
		switch section {
		case "styles":
			schema.NameIndex = fieldIndex(formatFields(line), "Name")
		case "events":
			schema.StyleIndex = fieldIndex(formatFields(line), "Style")
		}
	}
	return schema
}

func splitLines(script string) []string {
	return strings.Split(script, "\n")
}
