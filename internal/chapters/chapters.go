package chapters

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"unlinkmkv/internal/services"
)

// Element names from the Matroska chapter DTD.
const (
	elemChapters       = "Chapters"
	elemEditionEntry   = "EditionEntry"
	elemChapterAtom    = "ChapterAtom"
	elemTimeStart      = "ChapterTimeStart"
	elemTimeEnd        = "ChapterTimeEnd"
	elemFlagEnabled    = "ChapterFlagEnabled"
	elemSegmentUID     = "ChapterSegmentUID"
	elemFlagDefault    = "EditionFlagDefault"
	elemFlagOrdered    = "EditionFlagOrdered"
	attrUIDFormat      = "format"
	segmentLinkedToken = "<ChapterSegmentUID"
)

// Document wraps a parsed chapter XML tree.
type Document struct {
	doc *etree.Document
}

// Parse reads chapter XML produced by mkvextract into an editable document.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, services.Wrap(services.ErrMalformedChapters, "chapters", "parse", "", err)
	}
	if doc.SelectElement(elemChapters) == nil {
		return nil, services.Wrap(services.ErrMalformedChapters, "chapters", "parse", "missing Chapters root element", nil)
	}
	return &Document{doc: doc}, nil
}

// HasSegmentLinks reports whether any chapter references content in another
// file. The textual check matches what a raw chapter dump exposes.
func HasSegmentLinks(chapterXML string) bool {
	return strings.Contains(chapterXML, segmentLinkedToken)
}

func (d *Document) root() *etree.Element {
	return d.doc.SelectElement(elemChapters)
}

// Editions returns the edition entries in document order.
func (d *Document) Editions() []*etree.Element {
	return d.root().SelectElements(elemEditionEntry)
}

// EditionCount returns the number of editions present.
func (d *Document) EditionCount() int {
	return len(d.Editions())
}

// DropNonDefaultEditions removes every edition whose default flag is
// explicitly zero and returns the number removed.
func (d *Document) DropNonDefaultEditions() int {
	dropped := 0
	for _, edition := range d.Editions() {
		flag := edition.SelectElement(elemFlagDefault)
		if flag != nil && strings.TrimSpace(flag.Text()) == "0" {
			edition.Parent().RemoveChild(edition)
			dropped++
		}
	}
	return dropped
}

// SelectEdition retains only the requested edition (1-based) and discards the
// rest. It fails when the index is out of range.
func (d *Document) SelectEdition(index int) error {
	editions := d.Editions()
	if index < 1 || index > len(editions) {
		return services.Wrap(services.ErrNoSuchEdition, "chapters", "select edition",
			editionRangeDetail(index, len(editions)), nil)
	}
	for i, edition := range editions {
		if i+1 != index {
			edition.Parent().RemoveChild(edition)
		}
	}
	return nil
}

// Atoms returns the chapter atoms of the requested edition (1-based).
func (d *Document) Atoms(editionIndex int) ([]*Atom, error) {
	editions := d.Editions()
	if editionIndex < 1 || editionIndex > len(editions) {
		return nil, services.Wrap(services.ErrNoSuchEdition, "chapters", "list atoms",
			editionRangeDetail(editionIndex, len(editions)), nil)
	}
	elements := editions[editionIndex-1].SelectElements(elemChapterAtom)
	atoms := make([]*Atom, 0, len(elements))
	for _, el := range elements {
		atoms = append(atoms, &Atom{el: el})
	}
	return atoms, nil
}

// ClearOrderedFlag removes every ordered-edition marker. After flattening the
// structure no longer describes a linked timeline.
func (d *Document) ClearOrderedFlag() {
	for _, flag := range d.doc.FindElements("//" + elemFlagOrdered) {
		flag.Parent().RemoveChild(flag)
	}
}

// Serialize renders the (possibly rewritten) tree as pretty-printed XML with
// an explicit UTF-8 declaration.
func (d *Document) Serialize() ([]byte, error) {
	out := d.doc.Copy()
	ensureDeclaration(out)
	out.Indent(2)
	return out.WriteToBytes()
}

func ensureDeclaration(doc *etree.Document) {
	for _, child := range doc.Child {
		if _, ok := child.(*etree.ProcInst); ok {
			return
		}
	}
	decl := etree.NewProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.InsertChildAt(0, decl)
}

func editionRangeDetail(index, count int) string {
	return fmt.Sprintf("edition %d of %d", index, count)
}
