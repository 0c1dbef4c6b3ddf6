package prstats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TableFormat selects the output layout.
type TableFormat string

const (
	FormatText     TableFormat = "text"
	FormatCSV      TableFormat = "csv"
	FormatMarkdown TableFormat = "markdown"
)

// WriteTable renders prs to w in the requested format.
func WriteTable(w io.Writer, prs []PullRequest, format TableFormat) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, prs)
	case FormatMarkdown:
		return writeMarkdown(w, prs)
	default:
		return writeText(w, prs)
	}
}

func writeCSV(w io.Writer, prs []PullRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"PR#", "Title", "Author", "State", "First Response (hrs)", "First Comment (hrs)",
		"First Review (hrs)", "First Approval (hrs)", "Total Time (hrs)",
		"Created", "Merged", "Lines Changed", "Reviews", "Approvals", "URL",
	}); err != nil {
		return err
	}
	for _, pr := range prs {
		if err := cw.Write([]string{
			strconv.Itoa(pr.Number),
			pr.Title,
			pr.Author,
			pr.State,
			csvHours(pr.FirstResponseHrs),
			csvHours(pr.FirstCommentHrs),
			csvHours(pr.FirstReviewHrs),
			csvHours(pr.FirstApprovalHrs),
			csvHours(pr.MergeHrs),
			FormatDate(pr.CreatedAt),
			FormatDate(pr.MergedAt),
			strconv.Itoa(pr.TotalLinesChanged),
			strconv.Itoa(pr.ReviewCount),
			strconv.Itoa(pr.Approvals),
			pr.URL,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvHours(hrs *float64) string {
	if hrs == nil {
		return ""
	}
	return strconv.FormatFloat(*hrs, 'f', -1, 64)
}

func writeMarkdown(w io.Writer, prs []PullRequest) error {
	fmt.Fprintln(w, "| PR# | Title | Author | First Resp | First Rev | First App | Total Time | Lines | Reviews |")
	fmt.Fprintln(w, "|-----|-------|--------|------------|-----------|-----------|------------|-------|---------|")
	for _, pr := range prs {
		fmt.Fprintf(w, "| [%d](%s) | %s | %s | %s | %s | %s | %s | %d | %d |\n",
			pr.Number, pr.URL,
			Truncate(pr.Title, 35),
			pr.Author,
			FormatHours(pr.FirstResponseHrs),
			FormatHours(pr.FirstReviewHrs),
			FormatHours(pr.FirstApprovalHrs),
			FormatHours(pr.MergeHrs),
			pr.TotalLinesChanged,
			pr.ReviewCount)
	}
	return nil
}

func writeText(w io.Writer, prs []PullRequest) error {
	header := fmt.Sprintf("%-6s %-45s %-18s %-11s %-10s %-10s %-11s %-8s %-8s",
		"PR#", "Title", "Author", "First Resp", "First Rev", "First App", "Total Time", "Lines", "Reviews")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, pr := range prs {
		fmt.Fprintf(w, "%-6d %-45s %-18s %-11s %-10s %-10s %-11s %-8d %-8d\n",
			pr.Number,
			Truncate(pr.Title, 45),
			Truncate(pr.Author, 18),
			FormatHours(pr.FirstResponseHrs),
			FormatHours(pr.FirstReviewHrs),
			FormatHours(pr.FirstApprovalHrs),
			FormatHours(pr.MergeHrs),
			pr.TotalLinesChanged,
			pr.ReviewCount)
	}

	writeSummary(w, prs)
	return nil
}

// writeSummary prints aggregate merge/response times under the table.
func writeSummary(w io.Writer, prs []PullRequest) {
	var mergeTimes, responseTimes []float64
	for _, pr := range prs {
		if pr.MergeHrs != nil {
			mergeTimes = append(mergeTimes, *pr.MergeHrs)
		}
		if pr.FirstResponseHrs != nil {
			responseTimes = append(responseTimes, *pr.FirstResponseHrs)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(w, "Total PRs: %d (Merged: %d)\n", len(prs), len(mergeTimes))

	writeTimeStats(w, "Total Time to Merge", mergeTimes)
	writeTimeStats(w, "Time to First Response", responseTimes)
}

func writeTimeStats(w io.Writer, label string, times []float64) {
	if len(times) == 0 {
		return
	}
	min, max, sum := times[0], times[0], 0.0
	for _, t := range times {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
		sum += t
	}
	avg := sum / float64(len(times))

	fmt.Fprintf(w, "\n%s:\n", label)
	fmt.Fprintf(w, "  Longest: %s (%.2f hours)\n", FormatHours(&max), max)
	fmt.Fprintf(w, "  Shortest: %s (%.2f hours)\n", FormatHours(&min), min)
	fmt.Fprintf(w, "  Average: %s (%.2f hours)\n", FormatHours(&avg), avg)
}
