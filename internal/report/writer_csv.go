package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"fmt"
)

func init() {
	factory.RegisterWriter("csv", func(def config.WriterDef, cfg *config.Config) (model.Writer, error) {
		return NewCSVWriter(cfg.Reports)
	})
}

// CSVWriter writes the tag-count and port/protocol-count reports.
type CSVWriter struct {
	tagPath  string
	portPath string
}

// NewCSVWriter creates a writer for the two report paths in cfg.
func NewCSVWriter(cfg config.ReportsConfig) (model.Writer, error) {
	if cfg.TagCounts == "" || cfg.PortProtocolCounts == "" {
		return nil, fmt.Errorf("both report paths must be set")
	}
	return &CSVWriter{tagPath: cfg.TagCounts, portPath: cfg.PortProtocolCounts}, nil
}

func (w *CSVWriter) Type() string {
	return "csv"
}

// Write renders both reports. Each file is written all-or-nothing.
func (w *CSVWriter) Write(result *model.Result, timestamp string) error {
	if err := WriteCSV(w.tagPath, TagTable(result.TagCounts, TagHeaders)); err != nil {
		return err
	}
	return WriteCSV(w.portPath, PortProtocolTable(result.PortProtocolCounts, PortProtocolHeaders))
}
