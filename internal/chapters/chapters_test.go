package chapters

import (
	"errors"
	"strings"
	"testing"

	"unlinkmkv/internal/services"
	"unlinkmkv/internal/timecode"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<Chapters>
  <EditionEntry>
    <EditionFlagDefault>1</EditionFlagDefault>
    <EditionFlagOrdered>1</EditionFlagOrdered>
    <ChapterAtom>
      <ChapterTimeStart>00:00:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:01:30.000000000</ChapterTimeEnd>
      <ChapterSegmentUID format="hex">ab cd ef 01
23 45</ChapterSegmentUID>
    </ChapterAtom>
    <ChapterAtom>
      <ChapterTimeStart>00:00:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:20:00.000000000</ChapterTimeEnd>
      <ChapterFlagEnabled>1</ChapterFlagEnabled>
    </ChapterAtom>
  </EditionEntry>
  <EditionEntry>
    <EditionFlagDefault>0</EditionFlagDefault>
    <ChapterAtom>
      <ChapterTimeStart>00:00:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:05:00.000000000</ChapterTimeEnd>
    </ChapterAtom>
  </EditionEntry>
</Chapters>`

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not xml at all <")); err == nil {
		t.Fatal("expected parse error")
	}
	_, err := Parse([]byte("<Tags></Tags>"))
	if !errors.Is(err, services.ErrMalformedChapters) {
		t.Fatalf("expected ErrMalformedChapters, got %v", err)
	}
}

func TestHasSegmentLinks(t *testing.T) {
	if !HasSegmentLinks(sampleXML) {
		t.Error("sample should report segment links")
	}
	if HasSegmentLinks("<Chapters></Chapters>") {
		t.Error("empty tree should not report links")
	}
}

func TestEditionSelection(t *testing.T) {
	doc, err := Parse([]byte(sampleXML))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.EditionCount(); got != 2 {
		t.Fatalf("EditionCount = %d, want 2", got)
	}
	if err := doc.SelectEdition(1); err != nil {
		t.Fatal(err)
	}
	if got := doc.EditionCount(); got != 1 {
		t.Fatalf("after select, EditionCount = %d, want 1", got)
	}

	doc2, _ := Parse([]byte(sampleXML))
	err = doc2.SelectEdition(3)
	if !errors.Is(err, services.ErrNoSuchEdition) {
		t.Fatalf("expected ErrNoSuchEdition, got %v", err)
	}
}

func TestDropNonDefaultEditions(t *testing.T) {
	doc, _ := Parse([]byte(sampleXML))
	if dropped := doc.DropNonDefaultEditions(); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if got := doc.EditionCount(); got != 1 {
		t.Fatalf("EditionCount = %d, want 1", got)
	}
}

func TestAtomAccessors(t *testing.T) {
	doc, _ := Parse([]byte(sampleXML))
	atoms, err := doc.Atoms(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(atoms) != 2 {
		t.Fatalf("len(atoms) = %d, want 2", len(atoms))
	}

	raw, format, ok := atoms[0].SegmentUID()
	if !ok || format != UIDHex {
		t.Fatalf("SegmentUID = (%q, %v, %v)", raw, format, ok)
	}
	if !strings.Contains(raw, "ab cd") {
		t.Fatalf("raw UID lost whitespace form: %q", raw)
	}
	if _, _, ok := atoms[1].SegmentUID(); ok {
		t.Error("second atom should carry no UID")
	}
	if !atoms[1].Enabled() {
		t.Error("second atom should be enabled")
	}

	start, end, ok := atoms[0].Times()
	if !ok || !start.IsZero() || end != timecode.MustParse("00:01:30.000000000") {
		t.Fatalf("Times = (%s, %s, %v)", start, end, ok)
	}

	atoms[0].SetTimes(timecode.MustParse("00:01:00.000000000"), timecode.MustParse("00:02:30.000000000"))
	start, end, _ = atoms[0].Times()
	if start != timecode.MustParse("00:01:00.000000000") || end != timecode.MustParse("00:02:30.000000000") {
		t.Fatalf("SetTimes not applied: (%s, %s)", start, end)
	}
}

func TestSerializeFlattened(t *testing.T) {
	doc, _ := Parse([]byte(sampleXML))
	atoms, _ := doc.Atoms(1)
	atoms[0].RemoveSegmentUID()
	doc.ClearOrderedFlag()
	if err := doc.SelectEdition(1); err != nil {
		t.Fatal(err)
	}

	out, err := doc.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if !strings.Contains(text, `encoding="UTF-8"`) {
		t.Error("missing XML declaration")
	}
	if strings.Contains(text, "ChapterSegmentUID") {
		t.Error("segment UID survived flattening")
	}
	if strings.Contains(text, "EditionFlagOrdered") {
		t.Error("ordered flag survived flattening")
	}
	if strings.Count(text, "<EditionEntry>") != 1 {
		t.Error("non-selected edition survived")
	}
}

func TestSerializeAddsDeclarationWhenMissing(t *testing.T) {
	doc, err := Parse([]byte("<Chapters><EditionEntry></EditionEntry></Chapters>"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := doc.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(out)), "<?xml") {
		t.Fatalf("declaration missing: %q", out)
	}
}
