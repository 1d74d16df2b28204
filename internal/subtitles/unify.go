package subtitles

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// StyleTag derives the per-file rename tag from the script path. Tags must
// differ between source files and stay stable across both passes.
func StyleTag(path string) string {
	return fmt.Sprintf("u%d", crc32.ChecksumIEEE([]byte(path)))
}

type sectionKind int

const (
	sectionOther sectionKind = iota
	sectionInfo
	sectionStyles
	sectionEvents
)

func classifySection(line string) (sectionKind, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return sectionOther, false
	}
	switch {
	case isStylesHeader(line):
		return sectionStyles, true
	case isEventsHeader(line):
		return sectionEvents, true
	case trimmed == "[Script Info]":
		return sectionInfo, true
	default:
		return sectionOther, true
	}
}

func lineEnding(script string) string {
	if strings.Contains(script, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

func retagField(rest string, index int, tag string) string {
	fields := strings.SplitN(rest, ",", index+2)
	if index >= len(fields) {
		return rest
	}
	fields[index] = fields[index] + " " + tag
	return strings.Join(fields, ",")
}

// Disambiguate renames every style definition and every dialogue style
// reference with the file's tag and returns the rewritten script together
// with its renamed style definition lines for the shared catalog. Scripts
// without a complete schema are returned unchanged.
func Disambiguate(script, tag string, schema Schema) (string, []string) {
	if !schema.Complete() {
		return script, nil
	}
	eol := lineEnding(script)
	lines := splitLines(script)

	var catalog []string
	section := sectionOther
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if kind, ok := classifySection(line); ok {
			section = kind
			lines[i] = line
			continue
		}
		switch {
		case section == sectionStyles && strings.HasPrefix(line, "Style:"):
			rest := strings.TrimPrefix(line, "Style:")
			line = "Style:" + retagField(rest, schema.NameIndex, tag)
			catalog = append(catalog, line)
		case section == sectionEvents && strings.HasPrefix(line, "Dialogue:"):
			rest := strings.TrimPrefix(line, "Dialogue:")
			line = "Dialogue:" + retagField(rest, schema.StyleIndex, tag)
		}
		lines[i] = line
	}
	return strings.Join(lines, eol), catalog
}

// Merge replaces the script's local style block with the shared catalog and
// applies the optional play resolution overrides. The catalog is inserted
// directly after the style Format: line; existing Style: lines are dropped
// since the catalog already carries their renamed versions.
func Merge(script string, schema Schema, catalog []string, playResX, playResY string) string {
	if schema.NameIndex < 0 {
		return script
	}
	eol := lineEnding(script)

	var out []string
	section := sectionOther
	for _, raw := range splitLines(script) {
		line := strings.TrimRight(raw, "\r")
		if kind, ok := classifySection(line); ok {
			section = kind
			out = append(out, line)
			continue
		}
		switch section {
		case sectionStyles:
			if strings.HasPrefix(line, "Style:") {
				continue
			}
			out = append(out, line)
			if strings.HasPrefix(strings.TrimSpace(line), "Format:") {
				out = append(out, catalog...)
			}
		case sectionInfo:
			if playResX != "" && strings.HasPrefix(line, "PlayResX:") {
				line = "PlayResX: " + playResX
			}
			if playResY != "" && strings.HasPrefix(line, "PlayResY:") {
				line = "PlayResY: " + playResY
			}
			out = append(out, line)
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, eol)
}
