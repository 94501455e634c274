package flowlog

import (
	"FlowTagger/internal/model"
	"errors"
	"fmt"
	"strings"
)

const (
	dstPortField        = 5 // 6th field, 0-indexed
	protocolNumberField = 7 // 8th field, 0-indexed
	minFields           = protocolNumberField + 1
)

// ErrBlankLine is returned for lines that hold only whitespace. Such lines
// are skipped, not counted.
var ErrBlankLine = errors.New("blank line")

// ParseRecord extracts the destination port and protocol number from one
// flow-log line. Fields are separated by runs of whitespace. Values are
// passed through without range checks.
func ParseRecord(line string) (model.FlowRecord, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return model.FlowRecord{}, ErrBlankLine
	}
	if len(fields) < minFields {
		return model.FlowRecord{}, fmt.Errorf("%w: got %d field(s), need at least %d", model.ErrMalformedRecord, len(fields), minFields)
	}

	return model.FlowRecord{
		DstPort:        fields[dstPortField],
		ProtocolNumber: fields[protocolNumberField],
	}, nil
}
