package report

import (
	"FlowTagger/internal/fsutil"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var log = logger.MustGetLogger("report")

// TimestampLayout is the layout of run timestamps passed to writers.
const TimestampLayout = "2006-01-02_15-04-05"

var (
	// TagHeaders are the column names of the tag-count report.
	TagHeaders = []string{"Tag", "Count"}
	// PortProtocolHeaders are the column names of the port/protocol-count report.
	PortProtocolHeaders = []string{"Port", "Protocol", "Count"}
)

// TagCount is one row of the tag-count report.
type TagCount struct {
	Tag   string `json:"tag"`
	Count uint64 `json:"count"`
}

// PortProtocolCount is one row of the port/protocol-count report.
type PortProtocolCount struct {
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
	Count    uint64 `json:"count"`
}

// SortedTagCounts returns the counts ordered by tag.
func SortedTagCounts(counts model.TagCounts) []TagCount {
	rows := make([]TagCount, 0, len(counts))
	for _, tag := range counts.SortedKeys() {
		rows = append(rows, TagCount{Tag: tag, Count: counts[tag]})
	}
	return rows
}

// SortedPortProtocolCounts returns the counts ordered by (port, protocol).
func SortedPortProtocolCounts(counts model.PortProtocolCounts) []PortProtocolCount {
	rows := make([]PortProtocolCount, 0, len(counts))
	for _, key := range counts.SortedKeys() {
		rows = append(rows, PortProtocolCount{Port: key.Port, Protocol: key.Protocol, Count: counts[key]})
	}
	return rows
}

// Table is a rendered report: a header row and data rows in key order, the
// count in the last column.
type Table struct {
	Headers []string
	Rows    [][]string
}

// TagTable renders tag counts sorted by tag.
func TagTable(counts model.TagCounts, headers []string) Table {
	t := Table{Headers: headers}
	for _, row := range SortedTagCounts(counts) {
		t.Rows = append(t.Rows, []string{row.Tag, strconv.FormatUint(row.Count, 10)})
	}
	return t
}

// PortProtocolTable renders port/protocol counts sorted by (port, protocol).
func PortProtocolTable(counts model.PortProtocolCounts, headers []string) Table {
	t := Table{Headers: headers}
	for _, row := range SortedPortProtocolCounts(counts) {
		t.Rows = append(t.Rows, []string{row.Port, row.Protocol, strconv.FormatUint(row.Count, 10)})
	}
	return t
}

// Render writes t as CSV with CRLF row endings.
func Render(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteCSV writes t to path. The file only appears once the whole table has
// been rendered; on failure path is left untouched.
func WriteCSV(path string, t Table) error {
	err := fsutil.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		return Render(w, t)
	})
	if err != nil {
		log.Errorf("Failed to write to %s: %v", path, err)
		return fmt.Errorf("%w: failed to write '%s': %w", model.ErrDataSink, path, err)
	}
	log.Infof("Wrote %d rows to %s", len(t.Rows), path)
	return nil
}
