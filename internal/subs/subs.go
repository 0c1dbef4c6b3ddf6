// Package subs parses VPN subscription dumps, in either the broker CLI's
// fixed-width text format or SEMP XML, into a flat JSON-friendly record
// list.
package subs

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Subscription is one flattened subscription record.
type Subscription struct {
	VPNName         string `json:"vpn_name"`
	DestinationName string `json:"destination_name"`
	DestinationType string `json:"destination_type"`
	Persistence     string `json:"persistence"`
	Redundancy      string `json:"redundancy"`
	BlockID         string `json:"block_id"`
	DTOPriority     string `json:"dto_priority"`
	Subscription    string `json:"subscription"`
}

// Result is the top-level output shape.
type Result struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// CountByVPN tallies subscriptions per VPN name.
func (r *Result) CountByVPN() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.Subscriptions {
		counts[s.VPNName]++
	}
	return counts
}

// Format of an input file.
type Format string

const (
	FormatText    Format = "text"
	FormatXML     Format = "xml"
	FormatUnknown Format = "unknown"
)

// ErrNoSubscriptions reports an input that parsed cleanly but held no
// subscription records.
var ErrNoSubscriptions = errors.New("no subscriptions found")

// DetectFormat sniffs whether a file is SEMP XML or the CLI text format.
func DetectFormat(path string) (Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormatUnknown, err
	}
	return detectFormat(string(data)), nil
}

func detectFormat(content string) Format {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<rpc-reply") {
		return FormatXML
	}
	if strings.Contains(content, "Flags Legend:") || strings.Contains(content, "Message VPN") {
		return FormatText
	}
	return FormatUnknown
}

// ParseFile detects the format of path and parses it.
func ParseFile(path string) (*Result, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("read subscriptions: %w", err)
	}
	content := string(data)

	switch detectFormat(content) {
	case FormatXML:
		r, err := ParseXML(data)
		return r, FormatXML, err
	case FormatText:
		r, err := ParseText(content)
		return r, FormatText, err
	default:
		return nil, FormatUnknown, errors.New("unrecognized file format: expected broker CLI text or SEMP XML")
	}
}

// ---------------------------------------------------------------------------
// SEMP XML format
// ---------------------------------------------------------------------------

type xmlSubscription struct {
	VPNName         string `xml:"vpn-name"`
	DestinationName string `xml:"destination-name"`
	DestinationType string `xml:"destination-type"`
	Persistence     string `xml:"persistence"`
	Redundancy      string `xml:"redundancy"`
	BlockID         string `xml:"block-id"`
	DTOPriority     string `xml:"dto-priority"`
	Topic           string `xml:"topic"`
}

// ParseXML extracts every <subscription> element, wherever it sits in the
// reply tree.
func ParseXML(data []byte) (*Result, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	res := &Result{}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "subscription" {
			continue
		}
		var sub xmlSubscription
		if err := dec.DecodeElement(&sub, &start); err != nil {
			return nil, fmt.Errorf("invalid XML format: %w", err)
		}
		res.Subscriptions = append(res.Subscriptions, Subscription{
			VPNName:         strings.TrimSpace(sub.VPNName),
			DestinationName: strings.TrimSpace(sub.DestinationName),
			DestinationType: strings.TrimSpace(sub.DestinationType),
			Persistence:     strings.TrimSpace(sub.Persistence),
			Redundancy:      strings.TrimSpace(sub.Redundancy),
			BlockID:         strings.TrimSpace(sub.BlockID),
			DTOPriority:     strings.TrimSpace(sub.DTOPriority),
			Subscription:    strings.TrimSpace(sub.Topic),
		})
	}

	if len(res.Subscriptions) == 0 {
		return nil, fmt.Errorf("parse XML: %w", ErrNoSubscriptions)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Broker CLI text format
// ---------------------------------------------------------------------------

// vpnHeaderRe matches "Message VPN : prod (exported: No; 100% complete)".
var vpnHeaderRe = regexp.MustCompile(`Message VPN\s*:\s*(\S+)\s*\(exported:\s*(\w+);\s*(.+)\)`)

// Fixed-width column layout of a data row, derived from the header
// alignment of the CLI output:
//
//	Destination Name  0-24
//	flag T            25, flag P  27, flag R  29
//	BlkID             30-35, DTO Prio  36-40
//	Subscription      41+
const (
	colDestEnd   = 25
	colFlagT     = 25
	colFlagP     = 27
	colFlagR     = 29
	colBlkEnd    = 36
	colPrioEnd   = 41
	colSubsStart = 41
)

// ParseText parses the fixed-width CLI dump. Continuation lines (indented
// two or more spaces) extend the previous entry's destination name and
// subscription columns.
func ParseText(content string) (*Result, error) {
	var (
		all     []Subscription
		vpnName string
		cur     *Subscription
		inData  bool
	)

	flush := func() {
		if cur != nil {
			all = append(all, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}

		// Legend lines.
		if strings.HasPrefix(line, "Flags Legend:") ||
			strings.HasPrefix(line, "T -") || strings.HasPrefix(line, "P -") ||
			strings.HasPrefix(line, "R -") ||
			strings.HasPrefix(stripped, "R=remote-router") ||
			strings.HasPrefix(stripped, "S=static") {
			continue
		}

		if m := vpnHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			vpnName = m[1]
			inData = false
			continue
		}

		if strings.Contains(line, "Destination Name") && strings.Contains(line, "Flags") {
			inData = true
			continue
		}
		if strings.HasPrefix(stripped, "T P R") || strings.HasPrefix(stripped, "---") {
			continue
		}

		if !inData || vpnName == "" {
			continue
		}

		if strings.HasPrefix(line, "  ") {
			// Continuation of the previous entry's wrapped columns.
			if cur == nil {
				continue
			}
			if dest := strings.TrimSpace(col(line, 0, colDestEnd)); dest != "" {
				cur.DestinationName += dest
			}
			if sub := strings.TrimSpace(col(line, colSubsStart, len(line))); sub != "" {
				cur.Subscription += sub
			}
			continue
		}

		flush()

		dest := strings.TrimSpace(col(line, 0, colDestEnd))
		flagT := strings.TrimSpace(col(line, colFlagT, colFlagT+1))
		if dest == "" || flagT == "" {
			continue // malformed row
		}
		cur = &Subscription{
			VPNName:         vpnName,
			DestinationName: dest,
			DestinationType: expandType(flagT),
			Persistence:     expandPersistence(strings.TrimSpace(col(line, colFlagP, colFlagP+1))),
			Redundancy:      expandRedundancy(strings.TrimSpace(col(line, colFlagR, colFlagR+1))),
			BlockID:         strings.TrimSpace(col(line, colFlagR+1, colBlkEnd)),
			DTOPriority:     strings.TrimSpace(col(line, colBlkEnd, colPrioEnd)),
			Subscription:    strings.TrimSpace(col(line, colSubsStart, len(line))),
		}
	}
	flush()

	if len(all) == 0 {
		return nil, fmt.Errorf("parse text: %w", ErrNoSubscriptions)
	}
	return &Result{Subscriptions: all}, nil
}

// col slices [start,end) of a line, tolerating short lines.
func col(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}

func expandType(flag string) string {
	switch flag {
	case "C":
		return "client"
	case "Q":
		return "queue"
	case "R":
		return "remote-router"
	}
	return flag
}

func expandPersistence(flag string) string {
	switch flag {
	case "P":
		return "persistent"
	case "N":
		return "non-persistent"
	}
	return flag
}

func expandRedundancy(flag string) string {
	switch flag {
	case "P":
		return "primary"
	case "B":
		return "backup"
	case "S":
		return "static"
	case "-":
		return "not-applicable"
	}
	return flag
}
