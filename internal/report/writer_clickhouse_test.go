package report

import (
	"FlowTagger/internal/model"
	"context"
	"errors"
	"testing"
)

type fakeBatch struct {
	query     string
	rows      [][]any
	appendErr error
	sendErr   error
	sent      bool
	aborted   bool
}

func (b *fakeBatch) Append(v ...any) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.rows = append(b.rows, v)
	return nil
}

func (b *fakeBatch) Send() error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = true
	return nil
}

func (b *fakeBatch) Abort() error {
	b.aborted = true
	return nil
}

// newFakeClickHouseWriter hands out the given batches in order.
func newFakeClickHouseWriter(batches ...*fakeBatch) *ClickHouseWriter {
	next := 0
	return &ClickHouseWriter{
		prepare: func(ctx context.Context, query string) (batch, error) {
			b := batches[next]
			next++
			b.query = query
			return b, nil
		},
	}
}

func TestClickHouseWriter_Write(t *testing.T) {
	tags, ports := &fakeBatch{}, &fakeBatch{}
	writer := newFakeClickHouseWriter(tags, ports)

	if err := writer.Write(sampleResult(), "2024-05-04_12-00-00"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !tags.sent || !ports.sent {
		t.Fatalf("Expected both batches to be sent")
	}
	if tags.query != "INSERT INTO tag_counts" || ports.query != "INSERT INTO port_protocol_counts" {
		t.Errorf("Unexpected queries '%s' and '%s'", tags.query, ports.query)
	}
	if len(tags.rows) != 3 || len(ports.rows) != 2 {
		t.Errorf("Expected 3 tag rows and 2 port rows, got %d and %d", len(tags.rows), len(ports.rows))
	}
	if tag := tags.rows[0][1]; tag != model.UntaggedTag {
		t.Errorf("Expected rows in sorted order starting with Untagged, got %v", tag)
	}
}

func TestClickHouseWriter_AppendFailureSendsNothing(t *testing.T) {
	tags := &fakeBatch{}
	ports := &fakeBatch{appendErr: errors.New("bad row")}
	writer := newFakeClickHouseWriter(tags, ports)

	err := writer.Write(sampleResult(), "2024-05-04_12-00-00")
	if !errors.Is(err, model.ErrDataSink) {
		t.Fatalf("Expected ErrDataSink, got %v", err)
	}
	if tags.sent || ports.sent {
		t.Errorf("Expected no batch to be sent")
	}
	if !tags.aborted || !ports.aborted {
		t.Errorf("Expected both batches to be aborted")
	}
}

func TestClickHouseWriter_InvalidTimestamp(t *testing.T) {
	writer := newFakeClickHouseWriter()
	if err := writer.Write(sampleResult(), "yesterday"); err == nil {
		t.Fatal("Expected an error for an invalid run timestamp")
	}
}
