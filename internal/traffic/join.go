package traffic

import (
	"sort"

	"github.com/solace-dgrama/tools/internal/model"
)

// Join associates a checkpoint timestamp with the nearest snapshot within
// the join window. Returns nil when the map is empty, the timestamp is
// unparseable, or no snapshot lies within the window. Candidates are
// visited in ascending timestamp order, so an exact-distance tie goes to
// the earlier snapshot.
func (e *Extractor) Join(checkTS string, snaps map[string]*model.TrafficSnapshot) *model.TrafficSnapshot {
	sec, ok := secondsOfDay(checkTS)
	if !ok {
		return nil
	}

	var best *model.TrafficSnapshot
	bestDiff := e.cfg.JoinWindow + 1

	for _, ts := range sortedTimestamps(snaps) {
		osec, ok := secondsOfDay(ts)
		if !ok {
			continue
		}
		if d := absInt(sec - osec); d <= e.cfg.JoinWindow && d < bestDiff {
			best = snaps[ts]
			bestDiff = d
		}
	}

	return best
}

// secondsOfDay converts an HH:MM:SS timestamp to seconds since midnight.
// The Unknown sentinel and malformed values report !ok.
func secondsOfDay(ts string) (int, bool) {
	if len(ts) != 8 || ts[2] != ':' || ts[5] != ':' {
		return 0, false
	}
	h, ok1 := twoDigits(ts[0:2])
	m, ok2 := twoDigits(ts[3:5])
	s, ok3 := twoDigits(ts[6:8])
	if !ok1 || !ok2 || !ok3 || h > 23 || m > 59 || s > 59 {
		return 0, false
	}
	return h*3600 + m*60 + s, true
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// sortedTimestamps orders the snapshot keys ascending by time of day,
// with unparseable keys last in lexical order.
func sortedTimestamps(snaps map[string]*model.TrafficSnapshot) []string {
	keys := make([]string, 0, len(snaps))
	for ts := range snaps {
		keys = append(keys, ts)
	}
	sort.Slice(keys, func(i, j int) bool {
		si, oki := secondsOfDay(keys[i])
		sj, okj := secondsOfDay(keys[j])
		switch {
		case oki && okj:
			return si < sj
		case oki:
			return true
		case okj:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
