package prstats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hours(h float64) *float64 { return &h }

func fixture() []PullRequest {
	return []PullRequest{
		{Number: 1, Title: "fix flaky test", Author: "ana", State: "MERGED",
			TotalLinesChanged: 12, ReviewCount: 1, MergeHrs: hours(2.5), FirstResponseHrs: hours(0.5)},
		{Number: 2, Title: "add retry logic", Author: "ben", State: "MERGED",
			TotalLinesChanged: 300, ReviewCount: 4, MergeHrs: hours(48), FirstResponseHrs: hours(3)},
		{Number: 3, Title: "abandoned spike", Author: "cam", State: "CLOSED",
			TotalLinesChanged: 900, ReviewCount: 0},
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	data := `[{"number": 7, "title": "t", "state": "MERGED", "time_to_merge_hours": 1.5}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	prs, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(prs) != 1 || prs[0].Number != 7 {
		t.Fatalf("unexpected records: %+v", prs)
	}
	if prs[0].MergeHrs == nil || *prs[0].MergeHrs != 1.5 {
		t.Errorf("expected merge hours 1.5, got %v", prs[0].MergeHrs)
	}
}

func TestLoadWrapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	data := `{"prs": [{"number": 9, "state": "MERGED"}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	prs, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(prs) != 1 || prs[0].Number != 9 {
		t.Fatalf("unexpected records: %+v", prs)
	}
}

func TestFilterMerged(t *testing.T) {
	prs := FilterMerged(fixture(), false)
	if len(prs) != 2 {
		t.Fatalf("expected 2 merged PRs, got %d", len(prs))
	}
	if all := FilterMerged(fixture(), true); len(all) != 3 {
		t.Errorf("expected 3 with show-closed, got %d", len(all))
	}
}

func TestSortReviewTimeDescending(t *testing.T) {
	prs := fixture()
	Sort(prs, ByReviewTime, false)

	// Longest merge time first; missing merge time sorts last.
	if prs[0].Number != 2 || prs[1].Number != 1 || prs[2].Number != 3 {
		t.Errorf("unexpected order: %d, %d, %d", prs[0].Number, prs[1].Number, prs[2].Number)
	}
}

func TestSortSizeAscending(t *testing.T) {
	prs := fixture()
	Sort(prs, BySize, true)

	if prs[0].Number != 1 || prs[2].Number != 3 {
		t.Errorf("unexpected order: %d, %d, %d", prs[0].Number, prs[1].Number, prs[2].Number)
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "N/A"},
		{hours(0.5), "30.0m"},
		{hours(3.25), "3.2h"},
		{hours(48), "2.0d"},
	}
	for _, tt := range tests {
		if got := FormatHours(tt.in); got != tt.want {
			t.Errorf("FormatHours: expected %q, got %q", tt.want, got)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2026-03-01T12:30:00Z"); got != "2026-03-01" {
		t.Errorf("expected 2026-03-01, got %q", got)
	}
	if got := FormatDate(""); got != "N/A" {
		t.Errorf("expected N/A, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := Truncate("a very long pull request title", 10); got != "a very ..." {
		t.Errorf("expected truncation, got %q", got)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, fixture()[:1], FormatMarkdown); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "| PR# | Title |") {
		t.Errorf("missing markdown header: %s", out)
	}
	if !strings.Contains(out, "fix flaky test") {
		t.Errorf("missing row content: %s", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, fixture()[:2], FormatCSV); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "1,fix flaky test,ana,MERGED") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
}

func TestWriteTextSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, fixture(), FormatText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Total PRs: 3 (Merged: 2)") {
		t.Errorf("missing summary: %s", out)
	}
	if !strings.Contains(out, "Total Time to Merge") {
		t.Errorf("missing merge stats: %s", out)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
