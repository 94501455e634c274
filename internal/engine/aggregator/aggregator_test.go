package aggregator

import (
	"FlowTagger/internal/model"
	"FlowTagger/internal/table"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const (
	httpsRecord = "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK"
	dnsRecord   = "2 123456789012 eni-4d3c2b1a 192.168.1.100 203.0.113.101 53 49154 17 15 12000 1620140761 1620140821 REJECT OK"
)

func newTables(t *testing.T) (*table.ProtocolTable, *table.LookupTable) {
	t.Helper()
	protocols, err := table.ReadProtocolTable(strings.NewReader("Protocol_Number,Protocol\n6,tcp\n17,udp\n"), "protocols")
	if err != nil {
		t.Fatalf("Failed to build protocol table: %v", err)
	}
	lookup, err := table.ReadLookupTable(strings.NewReader("dstport,protocol,tag\n443,tcp,secure_web\n53,udp,dns\n"), "lookup")
	if err != nil {
		t.Fatalf("Failed to build lookup table: %v", err)
	}
	return protocols, lookup
}

func TestProcess_Scenario(t *testing.T) {
	protocols, lookup := newTables(t)

	result, err := Process(strings.NewReader(httpsRecord+"\n"+dnsRecord+"\n"), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	wantTags := model.TagCounts{"secure_web": 1, "dns": 1, model.UntaggedTag: 0}
	if !reflect.DeepEqual(result.TagCounts, wantTags) {
		t.Errorf("Expected tag counts %v, got %v", wantTags, result.TagCounts)
	}
	wantPorts := model.PortProtocolCounts{
		{Port: "443", Protocol: "tcp"}: 1,
		{Port: "53", Protocol: "udp"}:  1,
	}
	if !reflect.DeepEqual(result.PortProtocolCounts, wantPorts) {
		t.Errorf("Expected port/protocol counts %v, got %v", wantPorts, result.PortProtocolCounts)
	}
	if result.Records != 2 {
		t.Errorf("Expected 2 records, got %d", result.Records)
	}
}

func TestProcess_EmptyLog(t *testing.T) {
	protocols, lookup := newTables(t)

	result, err := Process(strings.NewReader("\n   \n\n"), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if count, ok := result.TagCounts[model.UntaggedTag]; !ok || count != 0 {
		t.Errorf("Expected Untagged to be present at 0, got %d (present=%v)", count, ok)
	}
	if len(result.TagCounts) != 1 {
		t.Errorf("Expected only Untagged, got %v", result.TagCounts)
	}
	if len(result.PortProtocolCounts) != 0 {
		t.Errorf("Expected no port/protocol counts, got %v", result.PortProtocolCounts)
	}
}

func TestProcess_LongLine(t *testing.T) {
	protocols, lookup := newTables(t)

	long := "2 1 eni 10.0.0.1 10.0.0.2 443 49153 6 " + strings.Repeat("x", 2<<20)
	input := long + "\r\n" + dnsRecord
	result, err := Process(strings.NewReader(input), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.TagCounts["secure_web"] != 1 || result.TagCounts["dns"] != 1 {
		t.Errorf("Expected one secure_web and one dns record, got %v", result.TagCounts)
	}
	if result.Records != 2 {
		t.Errorf("Expected 2 records, got %d", result.Records)
	}
}

func TestProcess_LastLineWithoutNewline(t *testing.T) {
	protocols, lookup := newTables(t)

	result, err := Process(strings.NewReader(httpsRecord+"\n"+dnsRecord), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Records != 2 || result.TagCounts["dns"] != 1 {
		t.Errorf("Expected the unterminated last line to be counted, got %v", result.TagCounts)
	}
}

func TestProcess_UnknownProtocolIsUntagged(t *testing.T) {
	protocols, lookup := newTables(t)
	line := "2 123456789012 eni-1 10.0.0.1 10.0.0.2 443 49153 99 1 1 1 1 ACCEPT OK"

	result, err := Process(strings.NewReader(line), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	key := model.PortProtocolKey{Port: "443", Protocol: model.UnknownProtocol}
	if result.PortProtocolCounts[key] != 1 {
		t.Errorf("Expected %v to be counted once, got %v", key, result.PortProtocolCounts)
	}
	if result.TagCounts[model.UntaggedTag] != 1 {
		t.Errorf("Expected Untagged to be 1, got %d", result.TagCounts[model.UntaggedTag])
	}
}

func TestProcess_UnknownProtocolCanBeTagged(t *testing.T) {
	protocols, _ := newTables(t)
	lookup, err := table.ReadLookupTable(strings.NewReader("dstport,protocol,tag\n443,unknown,odd\n"), "lookup")
	if err != nil {
		t.Fatalf("Failed to build lookup table: %v", err)
	}

	result, err := Process(strings.NewReader("a b c d e 443 g 250"), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.TagCounts["odd"] != 1 || result.TagCounts[model.UntaggedTag] != 0 {
		t.Errorf("Expected the unknown protocol key to be tagged 'odd', got %v", result.TagCounts)
	}
}

func TestProcess_MalformedLineAbortsRun(t *testing.T) {
	protocols, lookup := newTables(t)
	input := httpsRecord + "\n2 123456789012 eni-0a1b2c3d 10.0.1.201\n" + dnsRecord + "\n"

	result, err := Process(strings.NewReader(input), "flows.txt", protocols, lookup)
	if !errors.Is(err, model.ErrMalformedRecord) {
		t.Fatalf("Expected ErrMalformedRecord, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected no result on failure, got %+v", result)
	}
	if !strings.Contains(err.Error(), "flows.txt") || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected the error to name the source and line, got %v", err)
	}
}

func TestProcess_SumsMatchRecordCount(t *testing.T) {
	protocols, lookup := newTables(t)
	lines := []string{
		httpsRecord,
		"",
		dnsRecord,
		"1 2 3 4 5 80 7 6",
		"1 2 3 4 5 80 7 6",
		"1 2 3 4 5 22 7 1",
		"   ",
		"1 2 3 4 5 53 7 17",
	}

	result, err := Process(strings.NewReader(strings.Join(lines, "\n")), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	const parsed = 6
	if result.Records != parsed {
		t.Errorf("Expected %d records, got %d", parsed, result.Records)
	}
	if got := result.TagCounts.Total(); got != parsed {
		t.Errorf("Expected tag counts to sum to %d, got %d", parsed, got)
	}
	if got := result.PortProtocolCounts.Total(); got != parsed {
		t.Errorf("Expected port/protocol counts to sum to %d, got %d", parsed, got)
	}
	if result.TagCounts["dns"] != 2 {
		t.Errorf("Expected 2 dns records, got %d", result.TagCounts["dns"])
	}
}

func TestProcess_Deterministic(t *testing.T) {
	protocols, lookup := newTables(t)
	input := strings.Repeat(httpsRecord+"\n"+dnsRecord+"\n1 2 3 4 5 8080 7 6\n", 50)

	first, err := Process(strings.NewReader(input), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	second, err := Process(strings.NewReader(input), "flows", protocols, lookup)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results across runs")
	}
}

func TestAggregator_Add(t *testing.T) {
	protocols, lookup := newTables(t)
	agg := New(protocols, lookup)

	if err := agg.Add(httpsRecord); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := agg.Add("too short"); !errors.Is(err, model.ErrMalformedRecord) {
		t.Fatalf("Expected ErrMalformedRecord, got %v", err)
	}
	if agg.Result().Records != 1 {
		t.Errorf("Expected the malformed line to leave counts unchanged, got %d records", agg.Result().Records)
	}
}
