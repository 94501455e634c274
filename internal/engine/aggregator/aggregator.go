package aggregator

import (
	"FlowTagger/internal/engine/flowlog"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var log = logger.MustGetLogger("aggregator")

// ProtocolResolver maps a protocol number to a keyword and never fails.
type ProtocolResolver interface {
	Resolve(number string) string
}

// TagResolver maps a key to its tag; ok is false on a miss.
type TagResolver interface {
	Resolve(key model.PortProtocolKey) (tag string, ok bool)
}

// Aggregator classifies flow-log lines and counts them per tag and per
// (port, protocol) key. It is not safe for concurrent use: lines must be
// added in input order by a single goroutine.
type Aggregator struct {
	protocols ProtocolResolver
	lookup    TagResolver
	result    *model.Result
	lines     int
}

// New creates an aggregator with empty counts and Untagged seeded at zero.
func New(protocols ProtocolResolver, lookup TagResolver) *Aggregator {
	return &Aggregator{
		protocols: protocols,
		lookup:    lookup,
		result:    model.NewResult(),
	}
}

// Add classifies one line. Blank lines are ignored. A malformed line
// returns an error wrapping model.ErrMalformedRecord and leaves the counts
// unchanged.
func (a *Aggregator) Add(line string) error {
	a.lines++

	record, err := flowlog.ParseRecord(line)
	if errors.Is(err, flowlog.ErrBlankLine) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("line %d: %w", a.lines, err)
	}

	keyword := a.protocols.Resolve(record.ProtocolNumber)
	key := model.NewPortProtocolKey(record.DstPort, keyword)
	a.result.PortProtocolCounts[key]++

	tag, ok := a.lookup.Resolve(key)
	if !ok {
		tag = model.UntaggedTag
	}
	a.result.TagCounts[tag]++
	a.result.Records++
	return nil
}

// Result returns the counts accumulated so far.
func (a *Aggregator) Result() *model.Result {
	return a.result
}

// Process reads r line by line and returns the final counts. name identifies
// the source in errors. Any malformed line aborts the whole pass and no
// result is returned.
func Process(r io.Reader, name string, protocols ProtocolResolver, lookup TagResolver) (*model.Result, error) {
	agg := New(protocols, lookup)

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			log.Errorf("Failed to process flow logs from %s: %v", name, err)
			return nil, fmt.Errorf("%w: failed to read '%s': %w", model.ErrDataSource, name, err)
		}
		// The last line may end without a newline.
		if line != "" {
			if addErr := agg.Add(strings.TrimRight(line, "\r\n")); addErr != nil {
				log.Errorf("Failed to process flow logs from %s: %v", name, addErr)
				return nil, fmt.Errorf("failed to process '%s': %w", name, addErr)
			}
		}
		if err == io.EOF {
			break
		}
	}

	result := agg.Result()
	log.Infof("Processed %d flow records from %s into %d tags and %d port/protocol pairs",
		result.Records, name, len(result.TagCounts), len(result.PortProtocolCounts))
	return result, nil
}
