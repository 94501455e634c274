package model

import (
	"sort"
	"strings"
)

const (
	// UntaggedTag is the reserved tag for keys with no lookup table entry.
	UntaggedTag = "Untagged"
	// UnknownProtocol is the keyword for protocol numbers absent from the protocol table.
	UnknownProtocol = "unknown"
)

// PortProtocolKey identifies a (destination port, protocol keyword) pair.
// Always build it with NewPortProtocolKey so table and record paths agree.
type PortProtocolKey struct {
	Port     string
	Protocol string
}

// NewPortProtocolKey trims both fields and lower-cases the protocol keyword.
func NewPortProtocolKey(port, protocol string) PortProtocolKey {
	return PortProtocolKey{
		Port:     strings.TrimSpace(port),
		Protocol: strings.ToLower(strings.TrimSpace(protocol)),
	}
}

// Less orders keys by port, then protocol, comparing as strings.
func (k PortProtocolKey) Less(other PortProtocolKey) bool {
	if k.Port != other.Port {
		return k.Port < other.Port
	}
	return k.Protocol < other.Protocol
}

func (k PortProtocolKey) String() string {
	return k.Port + "/" + k.Protocol
}

// FlowRecord holds the two fields of a flow-log line used for classification.
type FlowRecord struct {
	DstPort        string
	ProtocolNumber string
}

// TagCounts maps a tag to the number of records classified under it.
type TagCounts map[string]uint64

// NewTagCounts returns counts seeded with UntaggedTag at zero.
func NewTagCounts() TagCounts {
	return TagCounts{UntaggedTag: 0}
}

// SortedKeys returns the tags in ascending order.
func (c TagCounts) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total is the sum of all counts.
func (c TagCounts) Total() uint64 {
	var total uint64
	for _, v := range c {
		total += v
	}
	return total
}

// PortProtocolCounts maps an observed key to its record count.
type PortProtocolCounts map[PortProtocolKey]uint64

// SortedKeys returns the keys in ascending (port, protocol) order.
func (c PortProtocolCounts) SortedKeys() []PortProtocolKey {
	keys := make([]PortProtocolKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Total is the sum of all counts.
func (c PortProtocolCounts) Total() uint64 {
	var total uint64
	for _, v := range c {
		total += v
	}
	return total
}

// Result is the outcome of one aggregation pass.
type Result struct {
	TagCounts          TagCounts
	PortProtocolCounts PortProtocolCounts
	// Records is the number of non-blank lines counted.
	Records uint64
}

// NewResult returns an empty result with Untagged seeded.
func NewResult() *Result {
	return &Result{
		TagCounts:          NewTagCounts(),
		PortProtocolCounts: make(PortProtocolCounts),
	}
}
