package model

// LogLine is one indexed line from the loaded log. Timestamp is the first
// [HH:MM:SS] found in the text, or UnknownTimestamp.
type LogLine struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}
