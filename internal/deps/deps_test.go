package deps

import (
	"testing"

	"unlinkmkv/internal/mkvtool"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "present", Command: "sh"},
		{Name: "absent", Command: "definitely-not-a-real-binary-xyz"},
		{Name: "blank", Command: "  "},
	})

	if len(statuses) != 3 {
		t.Fatalf("len = %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Errorf("sh should be available: %+v", statuses[0])
	}
	if statuses[1].Available {
		t.Errorf("fake binary should be missing: %+v", statuses[1])
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Errorf("blank command: %+v", statuses[2])
	}
}

func TestRequirementsCoverToolchain(t *testing.T) {
	reqs := Requirements(mkvtool.DefaultBinaries())

	byName := map[string]Requirement{}
	for _, req := range reqs {
		byName[req.Name] = req
	}
	for _, name := range []string{"mkvmerge", "mkvextract", "mkvinfo", "mkvpropedit"} {
		req, ok := byName[name]
		if !ok {
			t.Errorf("missing requirement %s", name)
			continue
		}
		if req.Optional {
			t.Errorf("%s should be required", name)
		}
	}
	if ffmpeg, ok := byName["ffmpeg"]; !ok || !ffmpeg.Optional {
		t.Errorf("ffmpeg should be optional: %+v", ffmpeg)
	}
}

func TestMissingRequired(t *testing.T) {
	missing := MissingRequired([]Status{
		{Name: "a", Available: true},
		{Name: "b", Available: false, Optional: true},
		{Name: "c", Available: false},
	})
	if len(missing) != 1 || missing[0] != "c" {
		t.Errorf("missing = %v, want [c]", missing)
	}
}
