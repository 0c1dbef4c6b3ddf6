// Package traffic reconstructs traffic-validation snapshots scattered
// through an AFW log and joins them to checkpoint actions by time.
//
// A snapshot is never printed in one piece: the validation verdict, the
// client-side stat lines, the broker-side per-client dumps, and the spool
// counters land in separate log regions that only share a timestamp. The
// extractor recognizes each trigger independently and folds the pieces
// into timestamp-keyed snapshots, then a merge pass attaches "before"
// baselines to their "after" counterparts.
package traffic

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/solace-dgrama/tools/internal/model"
	"github.com/solace-dgrama/tools/internal/scanner"
)

// Trigger phrases. Each one is matched by substring against raw lines.
const (
	validationTrigger = "Minimum Expected:"

	pubClientBefore = "Publisher client-side stats before traffic validation"
	pubClientAfter  = "Publisher client-side stats after traffic validation"
	subClientBefore = "Subscriber client-side stats before traffic validation"
	subClientAfter  = "Subscriber client-side stats after traffic validation"

	pubBrokerTrigger = "Publisher client message-spool-stats after traffic validation:"
	subBrokerTrigger = "Subscriber client message-spool-stats after traffic validation:"

	spoolTrigger = "Message-spool stats after traffic validation:"
)

var (
	validationRe = regexp.MustCompile(`Minimum Expected: (\d+) \(actual (\d+)\)`)
	braceRe      = regexp.MustCompile(`\{(\S+)\s+([^{}]*)\}`)
	xmlTagRe     = regexp.MustCompile(`<([A-Za-z][\w-]*)>([^<]*)</`)
	clientNameRe = regexp.MustCompile(`<client-name>([^<]+)</client-name>`)
)

// validationBackscan is how far above a validation line the extractor
// looks for a timestamp when the line itself has none.
const validationBackscan = 5

// Config tunes the extractor's lookahead bounds and tolerances. The
// defaults reproduce the behavior observed on real AFW logs; the caps
// exist so a malformed log without section terminators cannot stall a
// scan.
type Config struct {
	BrokerLookahead int // max lines scanned after a broker-stats trigger
	SpoolLookahead  int // max lines scanned after the spool-stats trigger
	MergeTolerance  int // seconds between an after snapshot and its before baseline
	JoinWindow      int // seconds between a check action and its snapshot
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BrokerLookahead: 3000,
		SpoolLookahead:  500,
		MergeTolerance:  5,
		JoinWindow:      30,
	}
}

// Extractor scans a loaded log for traffic snapshots.
type Extractor struct {
	cfg Config
}

// NewExtractor returns an Extractor with the given config; zero-valued
// fields fall back to the defaults.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.BrokerLookahead <= 0 {
		cfg.BrokerLookahead = def.BrokerLookahead
	}
	if cfg.SpoolLookahead <= 0 {
		cfg.SpoolLookahead = def.SpoolLookahead
	}
	if cfg.MergeTolerance <= 0 {
		cfg.MergeTolerance = def.MergeTolerance
	}
	if cfg.JoinWindow <= 0 {
		cfg.JoinWindow = def.JoinWindow
	}
	return &Extractor{cfg: cfg}
}

// Extract runs the full scan and merge. The context is polled between
// trigger scans so a caller can abandon an adversarial log.
func (e *Extractor) Extract(ctx context.Context, log *scanner.Log) (map[string]*model.TrafficSnapshot, error) {
	snaps := make(map[string]*model.TrafficSnapshot)

	for i := 0; i < log.Len(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := log.Line(i)

		switch {
		case strings.Contains(line, validationTrigger):
			e.scanValidation(log, i, snaps)

		case strings.Contains(line, pubClientBefore):
			s := snap(snaps, scanner.Timestamp(line))
			if s.PubClientPrev == nil {
				s.PubClientPrev = fillKeyed(nil, line)
			}
		case strings.Contains(line, pubClientAfter):
			s := snap(snaps, scanner.Timestamp(line))
			if s.PubClient == nil {
				s.PubClient = fillKeyed(nil, line)
			}
		case strings.Contains(line, subClientBefore):
			s := snap(snaps, scanner.Timestamp(line))
			if s.SubClientPrev == nil {
				s.SubClientPrev = fillKeyed(nil, line)
			}
		case strings.Contains(line, subClientAfter):
			s := snap(snaps, scanner.Timestamp(line))
			if s.SubClient == nil {
				s.SubClient = fillKeyed(nil, line)
			}

		case strings.Contains(line, pubBrokerTrigger):
			s := snap(snaps, scanner.Timestamp(line))
			if s.PubBroker == nil {
				s.PubBroker = e.scanBrokerStats(log, i+1, subBrokerTrigger)
			}
		case strings.Contains(line, subBrokerTrigger):
			s := snap(snaps, scanner.Timestamp(line))
			if s.SubBroker == nil {
				s.SubBroker = e.scanBrokerStats(log, i+1, pubBrokerTrigger)
			}

		case strings.Contains(line, spoolTrigger):
			s := snap(snaps, scanner.Timestamp(line))
			if s.Spool == nil {
				s.Spool = e.scanSpoolStats(log, i+1)
			}
		}
	}

	e.mergeBaselines(snaps)
	return snaps, nil
}

// snap returns the snapshot for ts, creating it on first use.
func snap(snaps map[string]*model.TrafficSnapshot, ts string) *model.TrafficSnapshot {
	s, ok := snaps[ts]
	if !ok {
		s = &model.TrafficSnapshot{Timestamp: ts}
		snaps[ts] = s
	}
	return s
}

// scanValidation records the expected/actual verdict. Validation lines
// often come from a facility that strips timestamps, so the extractor
// walks up to validationBackscan preceding lines for one.
func (e *Extractor) scanValidation(log *scanner.Log, i int, snaps map[string]*model.TrafficSnapshot) {
	m := validationRe.FindStringSubmatch(log.Line(i))
	if m == nil {
		return
	}

	ts := scanner.Timestamp(log.Line(i))
	for back := 1; ts == model.UnknownTimestamp && back <= validationBackscan && i-back >= 0; back++ {
		ts = scanner.Timestamp(log.Line(i - back))
	}

	s := snap(snaps, ts)
	if s.Validation != nil {
		return
	}
	expected := mustInt(m[1])
	actual := mustInt(m[2])
	s.Validation = &model.ValidationResult{
		Expected: expected,
		Actual:   actual,
		Passed:   actual >= expected,
	}
}

// fillKeyed parses every {key value} token on a client-stats line.
func fillKeyed(into model.KeyedStats, line string) model.KeyedStats {
	if into == nil {
		into = make(model.KeyedStats)
	}
	for _, m := range braceRe.FindAllStringSubmatch(line, -1) {
		into[m[1]] = strings.TrimSpace(m[2])
	}
	return into
}

// scanBrokerStats accumulates per-client XML stat fragments starting at
// line start. A <client-name> tag opens a new client; numeric
// <tag>value</tag> pairs accumulate onto the open client. The scan stops
// at the complementary section marker (stopMarker) or after the
// configured lookahead, whichever comes first, so a truncated log cannot
// hang the pass.
func (e *Extractor) scanBrokerStats(log *scanner.Log, start int, stopMarker string) []model.PerClientStats {
	var clients []model.PerClientStats
	var cur *model.PerClientStats

	end := start + e.cfg.BrokerLookahead
	for i := start; i < log.Len() && i < end; i++ {
		line := log.Line(i)
		if strings.Contains(line, stopMarker) {
			break
		}

		if m := clientNameRe.FindStringSubmatch(line); m != nil {
			if cur != nil {
				clients = append(clients, *cur)
			}
			cur = &model.PerClientStats{
				Name:   strings.TrimSpace(m[1]),
				Fields: make(map[string]int64),
			}
			continue
		}

		if cur == nil {
			continue
		}
		for _, m := range xmlTagRe.FindAllStringSubmatch(line, -1) {
			if n, err := strconv.ParseInt(strings.TrimSpace(m[2]), 10, 64); err == nil {
				cur.Fields[m[1]] = n
			}
		}
	}

	if cur != nil {
		clients = append(clients, *cur)
	}
	return clients
}

// scanSpoolStats collects the three spool counters, stopping early once
// all are found.
func (e *Extractor) scanSpoolStats(log *scanner.Log, start int) *model.SpoolStats {
	var stats model.SpoolStats
	found := 0

	end := start + e.cfg.SpoolLookahead
	for i := start; i < log.Len() && i < end && found < 3; i++ {
		for _, m := range xmlTagRe.FindAllStringSubmatch(log.Line(i), -1) {
			n, err := strconv.ParseInt(strings.TrimSpace(m[2]), 10, 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "ingress":
				stats.Ingress = n
				found++
			case "egress":
				stats.Egress = n
				found++
			case "discards":
				stats.Discards = n
				found++
			}
		}
	}

	if found == 0 {
		return nil
	}
	return &stats
}

// mergeBaselines finalizes the snapshot map: every complete snapshot
// adopts the nearest lone "before" baseline within MergeTolerance as its
// previous stats, and baselines left unclaimed are dropped. Candidates
// are visited in ascending timestamp order so ties resolve
// deterministically to the earlier snapshot.
func (e *Extractor) mergeBaselines(snaps map[string]*model.TrafficSnapshot) {
	ordered := sortedTimestamps(snaps)

	for _, ts := range ordered {
		s := snaps[ts]
		if !s.HasAfter() {
			continue
		}
		sec, ok := secondsOfDay(ts)
		if !ok {
			continue
		}

		var best *model.TrafficSnapshot
		bestDiff := e.cfg.MergeTolerance + 1
		for _, ots := range ordered {
			if ots == ts {
				continue
			}
			o := snaps[ots]
			if !o.HasBefore() || o.HasAfter() {
				continue
			}
			osec, ok := secondsOfDay(ots)
			if !ok {
				continue
			}
			if d := absInt(sec - osec); d <= e.cfg.MergeTolerance && d < bestDiff {
				best = o
				bestDiff = d
			}
		}
		if best == nil {
			continue
		}
		if s.PubClientPrev == nil {
			s.PubClientPrev = best.PubClientPrev
		}
		if s.SubClientPrev == nil {
			s.SubClientPrev = best.SubClientPrev
		}
	}

	// Lone baselines never become part of the result.
	for ts, s := range snaps {
		if !s.HasAfter() {
			delete(snaps, ts)
		}
	}
}

func mustInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
