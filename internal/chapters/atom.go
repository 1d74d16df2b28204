package chapters

import (
	"strings"

	"github.com/beevik/etree"

	"unlinkmkv/internal/timecode"
)

// UIDFormat tags how a segment UID was written in the source XML.
type UIDFormat int

const (
	// UIDHex is the default encoding: hex digits, possibly with embedded
	// whitespace or newlines.
	UIDHex UIDFormat = iota
	// UIDASCII stores the UID bytes as literal characters.
	UIDASCII
)

func (f UIDFormat) String() string {
	if f == UIDASCII {
		return "ascii"
	}
	return "hex"
}

// Atom is one chapter entry inside an edition. Its times are rewritten in
// place during reconstruction.
type Atom struct {
	el *etree.Element
}

// Times returns the chapter start and end. Atoms missing either timestamp are
// skipped by the timeline walk, mirroring how incomplete atoms behave in
// mkvmerge itself.
func (a *Atom) Times() (start, end timecode.Timecode, ok bool) {
	startEl := a.el.SelectElement(elemTimeStart)
	endEl := a.el.SelectElement(elemTimeEnd)
	if startEl == nil || endEl == nil {
		return 0, 0, false
	}
	start, err := timecode.Parse(startEl.Text())
	if err != nil {
		return 0, 0, false
	}
	end, err = timecode.Parse(endEl.Text())
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// SetTimes rewrites both chapter timestamps.
func (a *Atom) SetTimes(start, end timecode.Timecode) {
	if el := a.el.SelectElement(elemTimeStart); el != nil {
		el.SetText(start.String())
	}
	if el := a.el.SelectElement(elemTimeEnd); el != nil {
		el.SetText(end.String())
	}
}

// Enabled reports the chapter enabled flag; a missing flag means enabled.
func (a *Atom) Enabled() bool {
	flag := a.el.SelectElement(elemFlagEnabled)
	if flag == nil {
		return true
	}
	return strings.TrimSpace(flag.Text()) != "0"
}

// SegmentUID returns the raw cross-file reference and its format tag, if the
// atom carries one.
func (a *Atom) SegmentUID() (raw string, format UIDFormat, ok bool) {
	el := a.el.SelectElement(elemSegmentUID)
	if el == nil {
		return "", UIDHex, false
	}
	format = UIDHex
	if strings.EqualFold(el.SelectAttrValue(attrUIDFormat, "hex"), "ascii") {
		format = UIDASCII
	}
	return el.Text(), format, true
}

// RemoveSegmentUID drops the cross-file reference marker. The flattened tree
// must carry no segment links.
func (a *Atom) RemoveSegmentUID() {
	if el := a.el.SelectElement(elemSegmentUID); el != nil {
		a.el.RemoveChild(el)
	}
}
