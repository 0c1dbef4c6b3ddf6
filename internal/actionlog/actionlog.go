// Package actionlog extracts declared action lists and the executed-action
// timeline from an AFW test log. Extraction is best-effort: operational
// logs are noisy, so lines that fail a template are skipped, never fatal.
package actionlog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/solace-dgrama/tools/internal/model"
	"github.com/solace-dgrama/tools/internal/scanner"
)

// ---------------------------------------------------------------------------
// Declared action lists
// ---------------------------------------------------------------------------

// declaredMarker starts a declared-list block.
const declaredMarker = "Action list:"

// declaredContext is how many trailing lines belong to a marker's block,
// matching the original grep -A 2 extraction window.
const declaredContext = 2

// ExtractDeclared finds every "Action list:" block and decomposes it into
// ordered, check-delimited groups.
func ExtractDeclared(log *scanner.Log) []model.DeclaredActionList {
	var lists []model.DeclaredActionList

	for i := 0; i < log.Len(); i++ {
		if !strings.Contains(log.Line(i), declaredMarker) {
			continue
		}

		ts := scanner.Timestamp(log.Line(i))

		// Skip the dashed separator the framework prints under the marker.
		j := i + 1
		end := i + declaredContext
		if j < log.Len() && strings.Contains(log.Line(j), "------------") {
			j++
		}

		var parts []string
		for ; j <= end && j < log.Len(); j++ {
			s := strings.TrimSpace(log.Line(j))
			if s == "--" {
				break
			}
			if s != "" {
				parts = append(parts, s)
			}
		}

		text := strings.Join(parts, " ")
		if text == "" {
			continue
		}

		groups, incomplete := GroupActions(ParseActions(text))
		if len(groups) == 0 && !incomplete {
			continue
		}
		lists = append(lists, model.DeclaredActionList{
			Timestamp:  ts,
			Groups:     groups,
			Incomplete: incomplete,
		})
	}

	return lists
}

// ParseActions splits declared-list text into action specs.
// Tokens look like action:target:value; sleep::5 and check::3 leave the
// target empty. Tokens with fewer than two colon-separated parts are noise
// and are dropped.
func ParseActions(text string) []model.ActionSpec {
	var actions []model.ActionSpec

	for _, item := range strings.Fields(text) {
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 {
			continue
		}
		spec := model.ActionSpec{Name: parts[0], Target: parts[1]}
		if len(parts) > 2 {
			spec.Value = parts[2]
		}
		actions = append(actions, spec)
	}

	return actions
}

// GroupActions partitions specs into groups, each closed by the check
// action that ends it. A check with nothing pending closes nothing. The
// second return is true when a trailing group was never closed.
func GroupActions(actions []model.ActionSpec) ([][]model.ActionSpec, bool) {
	var groups [][]model.ActionSpec
	var current []model.ActionSpec

	for _, a := range actions {
		if a.IsCheck() {
			if len(current) == 0 {
				continue
			}
			current = append(current, a)
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, a)
	}

	if len(current) > 0 {
		groups = append(groups, current)
		return groups, true
	}
	return groups, false
}

// ---------------------------------------------------------------------------
// Executed actions
// ---------------------------------------------------------------------------

// executedMarker prefilters timeline lines before the full template runs.
const executedMarker = "Start of action"

// executedRe is the fixed record template the framework prints per action.
var executedRe = regexp.MustCompile(
	`action: (\d+) ~ Current list - (\d+)/(\d+); ` +
		`Action no\. - (\d+); ` +
		`Action - ([^;]+); ` +
		`target - ([^;]*); ` +
		`value - ([^;]*);`)

// ExtractExecuted collects every executed-action record in log order.
// Records are raw: the same GlobalNum may appear more than once when the
// framework mirrors a line to several facilities; run Dedup afterwards.
func ExtractExecuted(log *scanner.Log) []model.ExecutedAction {
	var executed []model.ExecutedAction

	for i := 0; i < log.Len(); i++ {
		line := log.Line(i)
		if !strings.Contains(line, executedMarker) {
			continue
		}
		m := executedRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		executed = append(executed, model.ExecutedAction{
			GlobalNum:  atoi(m[1]),
			ListNum:    atoi(m[2]),
			TotalLists: atoi(m[3]),
			ActionNum:  atoi(m[4]),
			Name:       strings.TrimSpace(m[5]),
			Target:     strings.TrimSpace(m[6]),
			Value:      strings.TrimSpace(m[7]),
			Timestamp:  scanner.Timestamp(line),
		})
	}

	return executed
}

// atoi converts a digits-only regexp capture; the pattern guarantees it
// parses.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ---------------------------------------------------------------------------
// Deduplication
// ---------------------------------------------------------------------------

// Dedup collapses repeated emissions of the same GlobalNum into one
// canonical record. A later record wins only when it has a concrete
// timestamp and the stored one does not; Unknown never displaces a
// concrete timestamp. Output is sorted by GlobalNum so the result is
// deterministic regardless of emission order.
func Dedup(executed []model.ExecutedAction) []model.ExecutedAction {
	byNum := make(map[int]model.ExecutedAction, len(executed))

	for _, act := range executed {
		stored, seen := byNum[act.GlobalNum]
		if !seen {
			byNum[act.GlobalNum] = act
			continue
		}
		if stored.Timestamp == model.UnknownTimestamp && act.Timestamp != model.UnknownTimestamp {
			byNum[act.GlobalNum] = act
		}
	}

	out := make([]model.ExecutedAction, 0, len(byNum))
	for _, act := range byNum {
		out = append(out, act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlobalNum < out[j].GlobalNum })
	return out
}

// FilterList keeps only actions belonging to list n.
func FilterList(executed []model.ExecutedAction, n int) []model.ExecutedAction {
	var out []model.ExecutedAction
	for _, act := range executed {
		if act.ListNum == n {
			out = append(out, act)
		}
	}
	return out
}
