package model

// UnknownTimestamp is the sentinel used when a log line carries no
// [HH:MM:SS] timestamp. Some AFW facilities strip timestamps before
// writing, so downstream code must treat it as a valid value.
const UnknownTimestamp = "Unknown"

// ActionSpec is one atomic step from a declared action list.
// Written in the log as name:target:value (sleep::5, check::3,
// adminDisable:primary:).
type ActionSpec struct {
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// IsCheck reports whether the step is a traffic-validation checkpoint.
func (a ActionSpec) IsCheck() bool { return a.Name == "check" }

// DeclaredActionList is one "Action list:" block from the log, decomposed
// into ordered groups. Each group ends with the check action that closes
// it, except a trailing group left open when the list was cut short.
type DeclaredActionList struct {
	Timestamp  string         `json:"timestamp"`
	Groups     [][]ActionSpec `json:"groups"`
	Incomplete bool           `json:"incomplete"` // last group has no terminating check
}

// ExecutedAction is one "Start of action" record from the execution
// timeline. GlobalNum is unique across the whole run and is the dedup key;
// the framework emits the same logical action to multiple log facilities,
// some of which drop the timestamp.
type ExecutedAction struct {
	GlobalNum  int    `json:"global_num"`
	ListNum    int    `json:"list_num"`
	TotalLists int    `json:"total_lists"`
	ActionNum  int    `json:"action_num"`
	Name       string `json:"action"`
	Target     string `json:"target,omitempty"`
	Value      string `json:"value,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// IsCheck reports whether the executed action is a checkpoint.
func (e ExecutedAction) IsCheck() bool { return e.Name == "check" }
