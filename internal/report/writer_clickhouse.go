package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTagCountsStatement = `
CREATE TABLE IF NOT EXISTS tag_counts (
    Timestamp   DateTime,
    Tag         String,
    Count       UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Timestamp, Tag);
`

const createPortProtocolCountsStatement = `
CREATE TABLE IF NOT EXISTS port_protocol_counts (
    Timestamp   DateTime,
    Port        String,
    Protocol    String,
    Count       UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Timestamp, Port, Protocol);
`

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef, cfg *config.Config) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse)
	})
}

// batch is the part of driver.Batch the writer uses.
type batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// ClickHouseWriter inserts the counts of each run into ClickHouse.
type ClickHouseWriter struct {
	prepare func(ctx context.Context, query string) (batch, error)
}

// NewClickHouseWriter connects to ClickHouse and ensures both tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createTagCountsStatement, createPortProtocolCountsStatement} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Info("Successfully connected to ClickHouse and ensured report tables exist.")

	return &ClickHouseWriter{
		prepare: func(ctx context.Context, query string) (batch, error) {
			return conn.PrepareBatch(ctx, query)
		},
	}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

func (w *ClickHouseWriter) Type() string {
	return "clickhouse"
}

// Write inserts one batch per report table. Both batches are filled before
// either is sent, so a bad row never leaves one table updated. A failure of
// the second send still leaves the tag rows of the run in place.
func (w *ClickHouseWriter) Write(result *model.Result, timestamp string) error {
	snapshotTime, err := time.ParseInLocation(TimestampLayout, timestamp, time.Local)
	if err != nil {
		return fmt.Errorf("invalid run timestamp '%s': %w", timestamp, err)
	}
	ctx := context.Background()

	var batches []batch
	sent := false
	defer func() {
		if !sent {
			for _, b := range batches {
				b.Abort()
			}
		}
	}()

	tagBatch, err := w.prepare(ctx, "INSERT INTO tag_counts")
	if err != nil {
		return fmt.Errorf("%w: failed to prepare tag batch: %w", model.ErrDataSink, err)
	}
	batches = append(batches, tagBatch)
	for _, row := range SortedTagCounts(result.TagCounts) {
		if err := tagBatch.Append(snapshotTime, row.Tag, row.Count); err != nil {
			return fmt.Errorf("%w: failed to append tag count to batch: %w", model.ErrDataSink, err)
		}
	}

	if len(result.PortProtocolCounts) > 0 {
		portBatch, err := w.prepare(ctx, "INSERT INTO port_protocol_counts")
		if err != nil {
			return fmt.Errorf("%w: failed to prepare port/protocol batch: %w", model.ErrDataSink, err)
		}
		batches = append(batches, portBatch)
		for _, row := range SortedPortProtocolCounts(result.PortProtocolCounts) {
			if err := portBatch.Append(snapshotTime, row.Port, row.Protocol, row.Count); err != nil {
				return fmt.Errorf("%w: failed to append port/protocol count to batch: %w", model.ErrDataSink, err)
			}
		}
	}

	sent = true
	for _, b := range batches {
		if err := b.Send(); err != nil {
			log.Errorf("Failed to send ClickHouse batch: %v", err)
			return fmt.Errorf("%w: failed to send batch: %w", model.ErrDataSink, err)
		}
	}

	log.Infof("Wrote %d tags and %d port/protocol pairs to ClickHouse", len(result.TagCounts), len(result.PortProtocolCounts))
	return nil
}
