package traffic

import (
	"context"
	"fmt"
	"testing"

	"github.com/solace-dgrama/tools/internal/model"
	"github.com/solace-dgrama/tools/internal/scanner"
)

func extract(t *testing.T, cfg Config, lines []string) map[string]*model.TrafficSnapshot {
	t.Helper()
	snaps, err := NewExtractor(cfg).Extract(context.Background(), scanner.FromLines(lines))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return snaps
}

func TestValidationTrigger(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[10:00:02] TRAFFIC Minimum Expected: 100 (actual 150)",
	})

	s := snaps["10:00:02"]
	if s == nil {
		t.Fatal("expected snapshot at 10:00:02")
	}
	v := s.Validation
	if v == nil {
		t.Fatal("expected validation result")
	}
	if v.Expected != 100 || v.Actual != 150 || !v.Passed {
		t.Errorf("unexpected validation: %+v", v)
	}
}

func TestValidationFailed(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[10:00:02] TRAFFIC Minimum Expected: 100 (actual 80)",
	})

	if v := snaps["10:00:02"].Validation; v.Passed {
		t.Errorf("expected failed validation, got %+v", v)
	}
}

func TestValidationBackscan(t *testing.T) {
	// The validation facility drops timestamps; the extractor walks up to
	// 5 preceding lines to find one.
	snaps := extract(t, Config{}, []string{
		"[10:00:01] earlier line",
		"no timestamp here",
		"Minimum Expected: 10 (actual 12)",
	})

	if _, ok := snaps["10:00:01"]; !ok {
		t.Fatalf("expected snapshot keyed by backscanned timestamp, got keys %v", keys(snaps))
	}
}

func TestClientStatsBrace(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[10:00:02] Publisher client-side stats after traffic validation: {total-ingress 200} {total-egress 195} {client-name pub1}",
		"[10:00:02] Subscriber client-side stats after traffic validation: {total-egress 195}",
	})

	s := snaps["10:00:02"]
	if s == nil {
		t.Fatal("expected snapshot at 10:00:02")
	}
	if s.PubClient["total-ingress"] != "200" {
		t.Errorf("expected total-ingress 200, got %q", s.PubClient["total-ingress"])
	}
	if s.PubClient["client-name"] != "pub1" {
		t.Errorf("expected client-name pub1, got %q", s.PubClient["client-name"])
	}
	if s.SubClient["total-egress"] != "195" {
		t.Errorf("expected sub total-egress 195, got %q", s.SubClient["total-egress"])
	}
}

func TestClientStatsFirstFillWins(t *testing.T) {
	// Snapshot fields are additive: a repeated stats emission at the same
	// timestamp must not displace the values filled first.
	snaps := extract(t, Config{}, []string{
		"[10:00:00] Publisher client-side stats after traffic validation: {total-ingress 100}",
		"[10:00:00] Publisher client-side stats after traffic validation: {total-ingress 999}",
		"[10:00:00] Subscriber client-side stats before traffic validation: {total-egress 50}",
		"[10:00:00] Subscriber client-side stats before traffic validation: {total-egress 777}",
	})

	s := snaps["10:00:00"]
	if s == nil {
		t.Fatal("expected snapshot at 10:00:00")
	}
	if got := s.PubClient["total-ingress"]; got != "100" {
		t.Errorf("expected first-filled value 100 to be preserved, got %q", got)
	}
	if got := s.SubClientPrev["total-egress"]; got != "50" {
		t.Errorf("expected first-filled baseline 50 to be preserved, got %q", got)
	}
}

func TestBrokerStatsScan(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[10:00:03] Publisher client message-spool-stats after traffic validation:",
		"<client-name>pub-client-1</client-name>",
		"<total-ingress>200</total-ingress>",
		"<total-egress>195</total-egress>",
		"<client-name>pub-client-2</client-name>",
		"<total-ingress>50</total-ingress>",
		"[10:00:04] Subscriber client message-spool-stats after traffic validation:",
		"<client-name>sub-client-1</client-name>",
		"<window-size>255</window-size>",
	})

	pub := snaps["10:00:03"].PubBroker
	if len(pub) != 2 {
		t.Fatalf("expected 2 publisher clients, got %d", len(pub))
	}
	if pub[0].Name != "pub-client-1" || pub[0].Fields["total-ingress"] != 200 {
		t.Errorf("unexpected first client: %+v", pub[0])
	}
	if pub[1].Name != "pub-client-2" || pub[1].Fields["total-ingress"] != 50 {
		t.Errorf("unexpected second client: %+v", pub[1])
	}

	sub := snaps["10:00:04"].SubBroker
	if len(sub) != 1 {
		t.Fatalf("expected 1 subscriber client, got %d", len(sub))
	}
	if sub[0].Fields["window-size"] != 255 {
		t.Errorf("expected window-size 255, got %d", sub[0].Fields["window-size"])
	}
}

func TestBrokerStatsBoundedLookahead(t *testing.T) {
	// No terminating section marker: the scan must still finish and only
	// see clients within the cap.
	lines := []string{"[10:00:03] Publisher client message-spool-stats after traffic validation:"}
	for i := 0; i < 100; i++ {
		lines = append(lines, fmt.Sprintf("<client-name>client-%d</client-name>", i))
		lines = append(lines, "<total-ingress>1</total-ingress>")
	}

	snaps := extract(t, Config{BrokerLookahead: 10}, lines)

	pub := snaps["10:00:03"].PubBroker
	if len(pub) != 5 {
		t.Errorf("expected 5 clients inside the 10-line cap, got %d", len(pub))
	}
}

func TestSpoolStats(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[10:00:05] Message-spool stats after traffic validation:",
		"<ingress>200</ingress>",
		"<egress>198</egress>",
		"<discards>2</discards>",
		"<ingress>999</ingress>", // past the early stop, must be ignored
	})

	sp := snaps["10:00:05"].Spool
	if sp == nil {
		t.Fatal("expected spool stats")
	}
	if sp.Ingress != 200 || sp.Egress != 198 || sp.Discards != 2 {
		t.Errorf("unexpected spool stats: %+v", sp)
	}
}

func TestBeforeAfterMerge(t *testing.T) {
	// A before baseline 2s ahead of the after snapshot merges in; they
	// end up as a single snapshot.
	snaps := extract(t, Config{}, []string{
		"[09:59:58] Publisher client-side stats before traffic validation: {total-ingress 100}",
		"[10:00:00] Publisher client-side stats after traffic validation: {total-ingress 200}",
	})

	if len(snaps) != 1 {
		t.Fatalf("expected 1 merged snapshot, got %d: %v", len(snaps), keys(snaps))
	}
	s := snaps["10:00:00"]
	if s == nil {
		t.Fatal("expected snapshot at 10:00:00")
	}
	if s.PubClient["total-ingress"] != "200" {
		t.Errorf("expected after value 200, got %q", s.PubClient["total-ingress"])
	}
	if s.PubClientPrev["total-ingress"] != "100" {
		t.Errorf("expected baseline value 100, got %q", s.PubClientPrev["total-ingress"])
	}
}

func TestLoneBeforeDropped(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[09:00:00] Subscriber client-side stats before traffic validation: {total-egress 5}",
		"[10:00:00] Minimum Expected: 1 (actual 1)", // an hour away, no merge
	})

	if _, ok := snaps["09:00:00"]; ok {
		t.Error("expected lone before baseline to be dropped")
	}
	if _, ok := snaps["10:00:00"]; !ok {
		t.Error("expected the complete snapshot to survive")
	}
}

func TestBeforeOutsideTolerance(t *testing.T) {
	snaps := extract(t, Config{}, []string{
		"[09:59:52] Publisher client-side stats before traffic validation: {total-ingress 100}",
		"[10:00:00] Publisher client-side stats after traffic validation: {total-ingress 200}",
	})

	s := snaps["10:00:00"]
	if s.PubClientPrev != nil {
		t.Errorf("expected no baseline merge at 8s, got %+v", s.PubClientPrev)
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lines := make([]string, 8192)
	_, err := NewExtractor(Config{}).Extract(ctx, scanner.FromLines(lines))
	if err == nil {
		t.Error("expected context error from cancelled extraction")
	}
}

func keys(snaps map[string]*model.TrafficSnapshot) []string {
	return sortedTimestamps(snaps)
}
