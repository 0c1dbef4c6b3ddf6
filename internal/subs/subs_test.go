package subs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// row lays out one fixed-width data line matching the CLI column layout.
func row(dest, flagT, flagP, flagR, blkID, prio, sub string) string {
	return fmt.Sprintf("%-25s%s %s %s%6s%5s%s", dest, flagT, flagP, flagR, blkID, prio, sub)
}

func textFixture() string {
	return strings.Join([]string{
		"Flags Legend:",
		"T - Destination Type (C=client, Q=queue, R=remote-router)",
		"P - Persistence (P=persistent, N=non-persistent)",
		"R - Redundancy (P=primary, B=backup, S=static)",
		"",
		"Message VPN : prod (exported: No; 100% complete)",
		"",
		"Destination Name         Flags      DTO",
		"                         T P R BlkID Prio Subscription",
		"------------------------ - - - ----- ---- ------------",
		row("pub-client-1", "C", "P", "P", "1", "1", "topic/a/>"),
		row("long-queue-name-that-", "Q", "N", "B", "2", "1", "topic/b/"),
		"  wraps" + strings.Repeat(" ", 34) + "over/lines",
		"",
		"Message VPN : test (exported: Yes; 50% complete)",
		"",
		"Destination Name         Flags      DTO",
		"                         T P R BlkID Prio Subscription",
		"------------------------ - - - ----- ---- ------------",
		row("remote-1", "R", "P", "-", "3", "2", "topic/c"),
	}, "\n")
}

func TestParseText(t *testing.T) {
	res, err := ParseText(textFixture())
	if err != nil {
		t.Fatalf("ParseText failed: %v", err)
	}
	if len(res.Subscriptions) != 3 {
		t.Fatalf("expected 3 subscriptions, got %d", len(res.Subscriptions))
	}

	first := res.Subscriptions[0]
	if first.VPNName != "prod" {
		t.Errorf("expected VPN prod, got %s", first.VPNName)
	}
	if first.DestinationName != "pub-client-1" {
		t.Errorf("unexpected destination: %q", first.DestinationName)
	}
	if first.DestinationType != "client" || first.Persistence != "persistent" || first.Redundancy != "primary" {
		t.Errorf("unexpected flag expansion: %+v", first)
	}
	if first.Subscription != "topic/a/>" {
		t.Errorf("unexpected subscription: %q", first.Subscription)
	}

	// Continuation lines extend destination name and subscription.
	second := res.Subscriptions[1]
	if second.DestinationName != "long-queue-name-that-wraps" {
		t.Errorf("expected joined destination name, got %q", second.DestinationName)
	}
	if second.Subscription != "topic/b/over/lines" {
		t.Errorf("expected joined subscription, got %q", second.Subscription)
	}
	if second.DestinationType != "queue" || second.Persistence != "non-persistent" || second.Redundancy != "backup" {
		t.Errorf("unexpected flags: %+v", second)
	}

	third := res.Subscriptions[2]
	if third.VPNName != "test" {
		t.Errorf("expected VPN test, got %s", third.VPNName)
	}
	if third.DestinationType != "remote-router" || third.Redundancy != "not-applicable" {
		t.Errorf("unexpected flags: %+v", third)
	}
}

func TestParseTextEmpty(t *testing.T) {
	_, err := ParseText("Flags Legend:\nnothing else\n")
	if !errors.Is(err, ErrNoSubscriptions) {
		t.Errorf("expected ErrNoSubscriptions, got %v", err)
	}
}

const xmlFixture = `<?xml version="1.0"?>
<rpc-reply>
  <rpc>
    <show>
      <smrp>
        <subscriptions>
          <subscription>
            <vpn-name>prod</vpn-name>
            <destination-name>client-a</destination-name>
            <destination-type>client</destination-type>
            <persistence>persistent</persistence>
            <redundancy>primary</redundancy>
            <block-id>7</block-id>
            <dto-priority>1</dto-priority>
            <topic>topic/x/&gt;</topic>
          </subscription>
          <subscription>
            <vpn-name>prod</vpn-name>
            <destination-name>client-b</destination-name>
            <destination-type>queue</destination-type>
            <persistence>non-persistent</persistence>
            <redundancy>backup</redundancy>
            <block-id>8</block-id>
            <dto-priority>2</dto-priority>
            <topic>topic/y</topic>
          </subscription>
        </subscriptions>
      </smrp>
    </show>
  </rpc>
</rpc-reply>`

func TestParseXML(t *testing.T) {
	res, err := ParseXML([]byte(xmlFixture))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}
	if len(res.Subscriptions) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(res.Subscriptions))
	}
	first := res.Subscriptions[0]
	if first.VPNName != "prod" || first.DestinationName != "client-a" {
		t.Errorf("unexpected record: %+v", first)
	}
	if first.Subscription != "topic/x/>" {
		t.Errorf("expected topic mapped to subscription, got %q", first.Subscription)
	}
}

func TestParseXMLNoSubscriptions(t *testing.T) {
	_, err := ParseXML([]byte(`<?xml version="1.0"?><rpc-reply><rpc/></rpc-reply>`))
	if !errors.Is(err, ErrNoSubscriptions) {
		t.Errorf("expected ErrNoSubscriptions, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	if f := detectFormat(xmlFixture); f != FormatXML {
		t.Errorf("expected xml, got %s", f)
	}
	if f := detectFormat(textFixture()); f != FormatText {
		t.Errorf("expected text, got %s", f)
	}
	if f := detectFormat("random content"); f != FormatUnknown {
		t.Errorf("expected unknown, got %s", f)
	}
}

func TestCountByVPN(t *testing.T) {
	res, err := ParseText(textFixture())
	if err != nil {
		t.Fatal(err)
	}
	counts := res.CountByVPN()
	if counts["prod"] != 2 || counts["test"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
