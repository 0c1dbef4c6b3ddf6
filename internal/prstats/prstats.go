// Package prstats loads pull-request statistics from a results.json file
// and sorts/formats them. Retrieval from the GitHub API is a separate
// (networked) workflow and lives outside this tool.
package prstats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"
)

// PullRequest is one record from results.json. Duration fields are
// pointers: a missing value means the event never happened (no review, no
// merge) and sorts to the end.
type PullRequest struct {
	Number            int      `json:"number"`
	Title             string   `json:"title"`
	Author            string   `json:"author"`
	State             string   `json:"state"`
	URL               string   `json:"url"`
	CreatedAt         string   `json:"created_at"`
	MergedAt          string   `json:"merged_at"`
	TotalLinesChanged int      `json:"total_lines_changed"`
	Additions         int      `json:"additions"`
	Deletions         int      `json:"deletions"`
	ChangedFiles      int      `json:"changed_files"`
	ReviewCount       int      `json:"review_count"`
	Approvals         int      `json:"approvals"`
	FirstResponseHrs  *float64 `json:"time_to_first_response_hours"`
	FirstCommentHrs   *float64 `json:"time_to_first_comment_hours"`
	FirstReviewHrs    *float64 `json:"time_to_first_review_hours"`
	FirstApprovalHrs  *float64 `json:"time_to_first_approval_hours"`
	MergeHrs          *float64 `json:"time_to_merge_hours"`
}

// ErrNoPRs reports an input file with no pull requests after filtering.
var ErrNoPRs = errors.New("no pull requests found")

// Load reads a results.json file. It accepts both a bare array and the
// {"prs": [...]} wrapper the retrieval script produces.
func Load(path string) ([]PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load PR stats: %w", err)
	}

	var prs []PullRequest
	if err := json.Unmarshal(data, &prs); err == nil {
		return prs, nil
	}

	var wrapped struct {
		PRs []PullRequest `json:"prs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return wrapped.PRs, nil
}

// FilterMerged keeps only merged PRs unless showClosed is set.
func FilterMerged(prs []PullRequest, showClosed bool) []PullRequest {
	if showClosed {
		return prs
	}
	var out []PullRequest
	for _, pr := range prs {
		if pr.State == "MERGED" {
			out = append(out, pr)
		}
	}
	return out
}

// SortKey names a sortable PR attribute.
type SortKey string

const (
	ByReviewTime    SortKey = "review_time"
	ByFirstResponse SortKey = "first_response"
	ByFirstComment  SortKey = "first_comment"
	ByFirstReview   SortKey = "first_review"
	ByFirstApproval SortKey = "first_approval"
	ByNumber        SortKey = "number"
	ByCreated       SortKey = "created"
	BySize          SortKey = "size"
	ByReviews       SortKey = "reviews"
)

// Sort orders prs by the given key, stably, descending unless ascending
// is set. Missing durations sort as +inf (end of ascending order), except
// review_time where they sort as -inf, matching the original tooling.
func Sort(prs []PullRequest, key SortKey, ascending bool) {
	val := sortValue(key)
	sort.SliceStable(prs, func(i, j int) bool {
		a, b := val(prs[i]), val(prs[j])
		if ascending {
			return less(a, b)
		}
		return less(b, a)
	})
}

type sortable struct {
	num   float64
	str   string
	byStr bool
}

func less(a, b sortable) bool {
	if a.byStr {
		return a.str < b.str
	}
	return a.num < b.num
}

func sortValue(key SortKey) func(PullRequest) sortable {
	hours := func(p *float64, missing float64) sortable {
		if p == nil {
			return sortable{num: missing}
		}
		return sortable{num: *p}
	}
	switch key {
	case ByFirstResponse:
		return func(pr PullRequest) sortable { return hours(pr.FirstResponseHrs, math.Inf(1)) }
	case ByFirstComment:
		return func(pr PullRequest) sortable { return hours(pr.FirstCommentHrs, math.Inf(1)) }
	case ByFirstReview:
		return func(pr PullRequest) sortable { return hours(pr.FirstReviewHrs, math.Inf(1)) }
	case ByFirstApproval:
		return func(pr PullRequest) sortable { return hours(pr.FirstApprovalHrs, math.Inf(1)) }
	case ByNumber:
		return func(pr PullRequest) sortable { return sortable{num: float64(pr.Number)} }
	case ByCreated:
		return func(pr PullRequest) sortable { return sortable{str: pr.CreatedAt, byStr: true} }
	case BySize:
		return func(pr PullRequest) sortable { return sortable{num: float64(pr.TotalLinesChanged)} }
	case ByReviews:
		return func(pr PullRequest) sortable { return sortable{num: float64(pr.ReviewCount)} }
	default: // review_time
		return func(pr PullRequest) sortable { return hours(pr.MergeHrs, math.Inf(-1)) }
	}
}

// FormatHours renders an hour count as minutes, hours, or days.
func FormatHours(hrs *float64) string {
	if hrs == nil {
		return "N/A"
	}
	h := *hrs
	switch {
	case h < 1:
		return fmt.Sprintf("%.1fm", h*60)
	case h < 24:
		return fmt.Sprintf("%.1fh", h)
	default:
		return fmt.Sprintf("%.1fd", h/24)
	}
}

// FormatDate shortens an ISO timestamp to YYYY-MM-DD.
func FormatDate(iso string) string {
	if iso == "" {
		return "N/A"
	}
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.Format("2006-01-02")
	}
	if len(iso) >= 10 {
		return iso[:10]
	}
	return iso
}

// Truncate shortens text to length runes with an ellipsis.
func Truncate(text string, length int) string {
	r := []rune(text)
	if len(r) <= length {
		return text
	}
	return string(r[:length-3]) + "..."
}
