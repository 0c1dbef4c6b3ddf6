package model

// ValidationResult is the outcome of one traffic validation: the broker
// delivered Actual messages against a floor of Expected.
type ValidationResult struct {
	Expected int  `json:"expected"`
	Actual   int  `json:"actual"`
	Passed   bool `json:"passed"`
}

// KeyedStats holds client-side stats parsed from brace-delimited
// {key value} tokens. Values stay strings; most are counters but the
// broker mixes in names and enum-like fields.
type KeyedStats map[string]string

// PerClientStats holds broker-side counters for one client, accumulated
// from <tag>value</tag> fragments inside a client section.
type PerClientStats struct {
	Name   string           `json:"name"`
	Fields map[string]int64 `json:"fields"`
}

// SpoolStats are the message-spool counters reported after validation.
type SpoolStats struct {
	Ingress  int64 `json:"ingress"`
	Egress   int64 `json:"egress"`
	Discards int64 `json:"discards"`
}

// TrafficSnapshot aggregates every traffic measurement gathered near one
// timestamp in the log. It is assembled incrementally from non-contiguous
// log regions: each extractor trigger fills fields that are still empty
// and never overwrites ones already set. After the before/after merge
// pass the snapshot is immutable.
type TrafficSnapshot struct {
	Timestamp     string            `json:"timestamp"`
	Validation    *ValidationResult `json:"validation,omitempty"`
	PubClient     KeyedStats        `json:"pub_client,omitempty"`
	PubClientPrev KeyedStats        `json:"pub_client_prev,omitempty"`
	SubClient     KeyedStats        `json:"sub_client,omitempty"`
	SubClientPrev KeyedStats        `json:"sub_client_prev,omitempty"`
	PubBroker     []PerClientStats  `json:"pub_broker,omitempty"`
	SubBroker     []PerClientStats  `json:"sub_broker,omitempty"`
	Spool         *SpoolStats       `json:"spool,omitempty"`
}

// HasAfter reports whether the snapshot carries any post-validation
// measurement. Snapshots without one are "before" baselines that only
// survive if merged into a nearby complete snapshot.
func (s *TrafficSnapshot) HasAfter() bool {
	return s.Validation != nil ||
		s.PubClient != nil || s.SubClient != nil ||
		s.PubBroker != nil || s.SubBroker != nil ||
		s.Spool != nil
}

// HasBefore reports whether the snapshot carries a pre-validation
// client-side baseline.
func (s *TrafficSnapshot) HasBefore() bool {
	return s.PubClientPrev != nil || s.SubClientPrev != nil
}
