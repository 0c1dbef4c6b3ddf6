package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/solace-dgrama/tools/internal/model"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stylePass   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleCheck  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
)

// ---------------------------------------------------------------------------
// Declared action lists
// ---------------------------------------------------------------------------

// DeclaredRenderer writes declared action lists in the compact
// list-by-list view.
type DeclaredRenderer struct {
	w io.Writer
}

// NewDeclaredRenderer returns a renderer writing to w.
func NewDeclaredRenderer(w io.Writer) *DeclaredRenderer {
	return &DeclaredRenderer{w: w}
}

func (r *DeclaredRenderer) Render(list model.DeclaredActionList) error {
	var b strings.Builder

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "%s\n", styleHeader.Render(fmt.Sprintf("Action List at %s", list.Timestamp)))
	fmt.Fprintf(&b, "%s\n\n", rule)

	for n, group := range list.Groups {
		last := n == len(list.Groups)-1
		if list.Incomplete && last {
			fmt.Fprintf(&b, "List %d (incomplete)\n", n+1)
		} else {
			check := group[len(group)-1]
			fmt.Fprintf(&b, "List %d → %s\n", n+1, styleCheck.Render("check::"+check.Value))
			group = group[:len(group)-1]
		}
		fmt.Fprintln(&b, styleDim.Render(strings.Repeat("-", 60)))
		for i, act := range group {
			fmt.Fprintf(&b, "  %2d. %s\n", i+1, describeSpec(act))
		}
		fmt.Fprintln(&b)
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// describeSpec formats one step for display.
func describeSpec(a model.ActionSpec) string {
	if a.Name == "sleep" {
		return fmt.Sprintf("sleep %ss", a.Value)
	}
	s := a.Name
	if a.Target != "" {
		s += ":" + a.Target
	}
	if a.Value != "" {
		s += " = " + a.Value
	}
	return s
}

// ---------------------------------------------------------------------------
// Executed-action timeline
// ---------------------------------------------------------------------------

// TimelineRenderer writes the executed-action timeline grouped by list.
// When a snapshot lookup is set, checkpoint actions are annotated with the
// traffic snapshot joined to them.
type TimelineRenderer struct {
	w io.Writer

	// Lookup maps a check action's timestamp to its joined snapshot;
	// nil result means no snapshot within the window.
	Lookup func(ts string) *model.TrafficSnapshot
}

// NewTimelineRenderer returns a renderer writing to w.
func NewTimelineRenderer(w io.Writer) *TimelineRenderer {
	return &TimelineRenderer{w: w}
}

func (r *TimelineRenderer) Render(executed []model.ExecutedAction) error {
	var b strings.Builder

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "%s\n", styleHeader.Render("Executed Actions Timeline"))
	fmt.Fprintf(&b, "%s\n\n", rule)

	currentList := -1
	for _, act := range executed {
		if act.ListNum != currentList {
			if currentList != -1 {
				fmt.Fprintln(&b)
			}
			fmt.Fprintf(&b, "List %d/%d\n", act.ListNum, act.TotalLists)
			fmt.Fprintln(&b, styleDim.Render(strings.Repeat("-", 60)))
			currentList = act.ListNum
		}

		fmt.Fprintf(&b, "  [%s] #%3d (Act %2d): %s\n",
			act.Timestamp, act.GlobalNum, act.ActionNum, describeExecuted(act))

		if act.IsCheck() && r.Lookup != nil {
			writeSnapshot(&b, r.Lookup(act.Timestamp))
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func describeExecuted(a model.ExecutedAction) string {
	switch a.Name {
	case "sleep":
		return fmt.Sprintf("sleep %ss", a.Value)
	case "check":
		return styleCheck.Render(fmt.Sprintf("CHECK::%s", a.Value))
	default:
		s := a.Name
		if a.Target != "" {
			s += " [" + a.Target + "]"
		}
		if a.Value != "" {
			s += " = " + a.Value
		}
		return s
	}
}

// writeSnapshot prints the traffic snapshot joined to a checkpoint, or a
// dim no-match note.
func writeSnapshot(b *strings.Builder, s *model.TrafficSnapshot) {
	if s == nil {
		fmt.Fprintf(b, "        %s\n", styleDim.Render("(no traffic snapshot within window)"))
		return
	}

	fmt.Fprintf(b, "        traffic @ %s:", s.Timestamp)
	if v := s.Validation; v != nil {
		verdict := stylePass.Render("PASS")
		if !v.Passed {
			verdict = styleFail.Render("FAIL")
		}
		fmt.Fprintf(b, " validation %s (expected %d, actual %d)", verdict, v.Expected, v.Actual)
	}
	fmt.Fprintln(b)

	if sp := s.Spool; sp != nil {
		fmt.Fprintf(b, "        spool: ingress=%d egress=%d discards=%d\n",
			sp.Ingress, sp.Egress, sp.Discards)
	}
	writeClientDelta(b, "pub", s.PubClient, s.PubClientPrev)
	writeClientDelta(b, "sub", s.SubClient, s.SubClientPrev)
	if len(s.PubBroker) > 0 {
		fmt.Fprintf(b, "        broker pub clients: %d\n", len(s.PubBroker))
	}
	if len(s.SubBroker) > 0 {
		fmt.Fprintf(b, "        broker sub clients: %d\n", len(s.SubBroker))
	}
}

// writeClientDelta shows after values with before→after deltas where the
// baseline carries the same counter.
func writeClientDelta(b *strings.Builder, label string, after, before model.KeyedStats) {
	if after == nil {
		return
	}
	fmt.Fprintf(b, "        %s client: %d stat(s)", label, len(after))
	if before != nil {
		keys := make([]string, 0, len(after))
		for k := range after {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var deltas []string
		for _, k := range keys {
			pv, ok := before[k]
			if !ok || pv == after[k] {
				continue
			}
			deltas = append(deltas, fmt.Sprintf("%s %s->%s", k, pv, after[k]))
		}
		if len(deltas) > 0 {
			fmt.Fprintf(b, "  [%s]", strings.Join(deltas, ", "))
		}
	}
	fmt.Fprintln(b)
}

// ---------------------------------------------------------------------------
// JSON output
// ---------------------------------------------------------------------------

// JSONRenderer emits any result value as indented JSON, for piping into
// jq or other tooling.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a renderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(v any) error {
	return r.enc.Encode(v)
}
