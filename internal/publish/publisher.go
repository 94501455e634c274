package publish

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"fmt"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var log = logger.MustGetLogger("publish")

// Publisher announces finished runs on a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.PublisherConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	log.Infof("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// BuildSummary converts a run into the protobuf Struct that is published.
func BuildSummary(runID string, result *model.Result) (*structpb.Struct, error) {
	tags := make(map[string]interface{}, len(result.TagCounts))
	for tag, count := range result.TagCounts {
		tags[tag] = count
	}
	return structpb.NewStruct(map[string]interface{}{
		"run_id":              runID,
		"records":             result.Records,
		"port_protocol_pairs": len(result.PortProtocolCounts),
		"tag_counts":          tags,
	})
}

// Publish serializes the run summary to Protobuf and publishes it to the configured NATS subject.
func (p *Publisher) Publish(runID string, result *model.Result) error {
	summary, err := BuildSummary(runID, result)
	if err != nil {
		return fmt.Errorf("failed to build run summary: %w", err)
	}

	data, err := proto.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("%w: failed to publish to '%s': %w", model.ErrDataSink, p.subject, err)
	}
	if err := p.nc.Flush(); err != nil {
		return fmt.Errorf("%w: failed to flush NATS connection: %w", model.ErrDataSink, err)
	}
	log.Infof("Published summary of run %s to '%s'", runID, p.subject)
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Info("NATS connection drained and closed.")
	}
}
