package mkvtool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The mkvinfo element listing is line oriented: top-level elements start with
// "| +", nested properties with "|  +". These scrapers port the patterns the
// pipeline needs; anything unrecognized is ignored.
var (
	topLevelPattern    = regexp.MustCompile(`^\| ?\+`)
	titlePattern       = regexp.MustCompile(`^\| \+ Title: (.*)`)
	trackStartPattern  = regexp.MustCompile(`^\| \+ A track|^\| \+ Track`)
	languagePattern    = regexp.MustCompile(`\|  \+ Language: (.*)$`)
	trackTypePattern   = regexp.MustCompile(`\|  \+ Track type: (.*)`)
	trackNamePattern   = regexp.MustCompile(`\|  \+ Name: (.*)`)
	defaultFlagPattern = regexp.MustCompile(`\|  \+ Default flag: (.*)`)
	trackNumberPattern = regexp.MustCompile(`Track number: .*: (\d+)\)`)

	attachedPattern = regexp.MustCompile(`(?i)\|[\s\t]+\+[\s\t]+Attached`)
	fileNamePattern = regexp.MustCompile(`(?i)File name: (.*)`)
	mimeTypePattern = regexp.MustCompile(`(?i)Mime type: (.*)`)
	fileSizePattern = regexp.MustCompile(`(?i)File data[,:]? size[:]? (.*)`)
	fileUIDPattern  = regexp.MustCompile(`(?i)File UID: (.*)`)
)

// Edit is one mkvpropedit argument group.
type Edit []string

// ParseEdits scrapes the title and per-track language/name/default-flag
// metadata into mkvpropedit argument groups, so the properties survive the
// rebuild.
func ParseEdits(infoOutput string) []Edit {
	var edits []Edit
	counts := map[string]int{}

	var (
		inTrack   bool
		trackType string
		language  string
		name      string
		deflag    string
	)
	flush := func() {
		if trackType == "" {
			return
		}
		selector := fmt.Sprintf("track:%s%d", trackType, counts[trackType])
		var edit Edit
		if language != "" {
			edit = append(edit, "--edit", selector, "--set", "language="+language)
		}
		if name != "" {
			edit = append(edit, "--edit", selector, "--set", "name="+name)
		}
		if deflag != "" {
			edit = append(edit, "--edit", selector, "--set", "flag-default="+deflag)
		}
		if len(edit) > 0 {
			edits = append(edits, edit)
		}
		trackType, language, name, deflag = "", "", "", ""
	}

	for _, line := range strings.Split(infoOutput, "\n") {
		if topLevelPattern.MatchString(line) {
			inTrack = trackStartPattern.MatchString(line)
			flush()
		}
		if m := titlePattern.FindStringSubmatch(line); m != nil {
			edits = append(edits, Edit{"--edit", "info", "--set", "title=" + m[1]})
			continue
		}
		if !inTrack {
			continue
		}
		switch {
		case languagePattern.MatchString(line):
			language = languagePattern.FindStringSubmatch(line)[1]
		case trackTypePattern.MatchString(line):
			switch trackTypePattern.FindStringSubmatch(line)[1] {
			case "audio":
				trackType = "a"
			case "subtitles":
				trackType = "s"
			}
			if trackType != "" {
				counts[trackType]++
			}
		case trackNamePattern.MatchString(line):
			name = trackNamePattern.FindStringSubmatch(line)[1]
		case defaultFlagPattern.MatchString(line):
			deflag = defaultFlagPattern.FindStringSubmatch(line)[1]
		}
	}
	flush()
	return edits
}

// Attachment describes one attached file discovered in a part.
type Attachment struct {
	Name string
	Mime string
	Size string
	UID  string
}

// ParseAttachments scrapes the attachment listing from mkvinfo output.
// Attachment IDs for mkvextract are 1-based in listing order.
func ParseAttachments(infoOutput string) []Attachment {
	var attachments []Attachment
	var current Attachment
	inAttached := false

	for _, line := range strings.Split(infoOutput, "\n") {
		if attachedPattern.MatchString(line) {
			inAttached = true
		}
		if !inAttached {
			continue
		}
		switch {
		case fileNamePattern.MatchString(line):
			current.Name = strings.TrimSpace(fileNamePattern.FindStringSubmatch(line)[1])
		case mimeTypePattern.MatchString(line):
			current.Mime = strings.TrimSpace(mimeTypePattern.FindStringSubmatch(line)[1])
		case fileSizePattern.MatchString(line):
			current.Size = strings.TrimSpace(fileSizePattern.FindStringSubmatch(line)[1])
		case fileUIDPattern.MatchString(line):
			current.UID = strings.TrimSpace(fileUIDPattern.FindStringSubmatch(line)[1])
		}
		if current.Name != "" && current.Mime != "" && current.Size != "" && current.UID != "" {
			attachments = append(attachments, current)
			current = Attachment{}
		}
	}
	return attachments
}

// ParseSubtitleTracks returns the mkvextract track IDs of every subtitle
// track in the listing.
func ParseSubtitleTracks(infoOutput string) []int {
	var ids []int
	var (
		inTrack  bool
		subtitle bool
		id       = -1
	)
	for _, line := range strings.Split(infoOutput, "\n") {
		if trackStartPattern.MatchString(line) {
			inTrack = true
			subtitle = false
			id = -1
		} else if inTrack && strings.Contains(line, "Track type: subtitles") {
			subtitle = true
		} else if inTrack {
			if m := trackNumberPattern.FindStringSubmatch(line); m != nil {
				if parsed, err := strconv.Atoi(m[1]); err == nil {
					id = parsed
				}
			}
		}
		if inTrack && subtitle && id >= 0 {
			ids = append(ids, id)
			inTrack = false
			subtitle = false
			id = -1
		}
	}
	return ids
}

// HasFLACTrack reports whether the listing contains a FLAC audio codec.
// mkvmerge cannot split FLAC-bearing files, so these are transcoded first.
func HasFLACTrack(infoOutput string) bool {
	return strings.Contains(infoOutput, "Codec ID: A_FLAC")
}
