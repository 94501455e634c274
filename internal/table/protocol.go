package table

import (
	"FlowTagger/internal/model"
	_ "embed"
	"fmt"
	"io"
	"strings"
)

// ProtocolTable maps IP protocol numbers to lower-case protocol keywords.
// It is immutable once built.
type ProtocolTable struct {
	source    string
	protocols map[string]string
}

// LoadProtocolTable reads a [Protocol_Number, Protocol] CSV file opened with open.
func LoadProtocolTable(path string, open Opener) (*ProtocolTable, error) {
	var t *ProtocolTable
	err := loadFile(path, open, func(r io.Reader) error {
		var err error
		t, err = ReadProtocolTable(r, path)
		return err
	})
	if err != nil {
		log.Errorf("Failed to read protocol numbers from %s: %v", path, err)
		return nil, err
	}
	log.Infof("Loaded %d protocol numbers from %s", t.Len(), path)
	return t, nil
}

// ReadProtocolTable builds a table from CSV content; name identifies the
// source in errors. The first row is a header and is skipped. Both fields
// are trimmed and the keyword is lower-cased. When a number appears more
// than once, the last row wins.
func ReadProtocolTable(r io.Reader, name string) (*ProtocolTable, error) {
	t := &ProtocolTable{source: name, protocols: make(map[string]string)}
	err := readRows(r, name, 2, func(row []string) {
		number := strings.TrimSpace(row[0])
		t.protocols[number] = strings.ToLower(strings.TrimSpace(row[1]))
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

//go:embed iana_protocols.csv
var ianaProtocols string

// BuiltinProtocolTable builds a table from the IANA protocol keyword list
// compiled into the binary. Numbers without a keyword are left out.
func BuiltinProtocolTable() *ProtocolTable {
	t, err := ReadProtocolTable(strings.NewReader(ianaProtocols), "builtin")
	if err != nil {
		panic(fmt.Sprintf("invalid builtin protocol table: %v", err))
	}
	log.Infof("Using builtin protocol table with %d protocol numbers", t.Len())
	return t
}

// Resolve returns the keyword for number, or model.UnknownProtocol.
func (t *ProtocolTable) Resolve(number string) string {
	if keyword, ok := t.protocols[strings.TrimSpace(number)]; ok {
		return keyword
	}
	return model.UnknownProtocol
}

// Len returns the number of protocol numbers in the table.
func (t *ProtocolTable) Len() int {
	return len(t.protocols)
}

// Source returns the name the table was loaded from.
func (t *ProtocolTable) Source() string {
	return t.source
}
