package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/fsutil"
	"FlowTagger/internal/model"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

func init() {
	factory.RegisterWriter("gob", func(def config.WriterDef, cfg *config.Config) (model.Writer, error) {
		if def.Gob.RootPath == "" {
			return nil, fmt.Errorf("gob.root_path must be set")
		}
		return NewGobWriter(def.Gob.RootPath), nil
	})
}

// Snapshot is the gob-encoded form of a run's counts, in report order.
type Snapshot struct {
	TagCounts          []TagCount
	PortProtocolCounts []PortProtocolCount
	Records            uint64
}

// SummaryData holds the metadata for a snapshot, internal to the writer.
type SummaryData struct {
	Records           uint64 `json:"records"`
	Tags              int    `json:"tags"`
	PortProtocolPairs int    `json:"port_protocol_pairs"`
	Untagged          uint64 `json:"untagged"`
	Timestamp         string `json:"timestamp"`
}

// GobWriter writes each run to <root>/<timestamp>/ as counts.gob plus summary.json.
type GobWriter struct {
	rootPath string
}

// NewGobWriter creates a new snapshot writer rooted at rootPath.
func NewGobWriter(rootPath string) model.Writer {
	return &GobWriter{rootPath: rootPath}
}

func (w *GobWriter) Type() string {
	return "gob"
}

// Write serializes the counts of one run into a timestamped directory.
func (w *GobWriter) Write(result *model.Result, timestamp string) error {
	runDir := filepath.Join(w.rootPath, timestamp)

	snapshot := Snapshot{
		TagCounts:          SortedTagCounts(result.TagCounts),
		PortProtocolCounts: SortedPortProtocolCounts(result.PortProtocolCounts),
		Records:            result.Records,
	}
	countsPath := filepath.Join(runDir, "counts.gob")
	err := fsutil.WriteFileAtomic(countsPath, 0644, func(out io.Writer) error {
		return gob.NewEncoder(out).Encode(snapshot)
	})
	if err != nil {
		log.Errorf("Failed to write snapshot %s: %v", countsPath, err)
		return fmt.Errorf("%w: failed to encode counts to gob for '%s': %w", model.ErrDataSink, countsPath, err)
	}

	summary := SummaryData{
		Records:           result.Records,
		Tags:              len(result.TagCounts),
		PortProtocolPairs: len(result.PortProtocolCounts),
		Untagged:          result.TagCounts[model.UntaggedTag],
		Timestamp:         timestamp,
	}
	summaryPath := filepath.Join(runDir, "summary.json")
	err = fsutil.WriteFileAtomic(summaryPath, 0644, func(out io.Writer) error {
		jsonEncoder := json.NewEncoder(out)
		jsonEncoder.SetIndent("", "  ")
		return jsonEncoder.Encode(summary)
	})
	if err != nil {
		log.Errorf("Failed to write summary %s: %v", summaryPath, err)
		return fmt.Errorf("%w: failed to encode summary to json: %w", model.ErrDataSink, err)
	}

	log.Infof("Wrote snapshot of %d records to %s", result.Records, runDir)
	return nil
}
