package table

import (
	"FlowTagger/internal/model"
	"io"
	"strings"
)

// LookupTable maps (destination port, protocol keyword) pairs to tags.
// It is immutable once built.
type LookupTable struct {
	source string
	tags   map[model.PortProtocolKey]string
}

// LoadLookupTable reads a [dstport, protocol, tag] CSV file opened with open.
func LoadLookupTable(path string, open Opener) (*LookupTable, error) {
	var t *LookupTable
	err := loadFile(path, open, func(r io.Reader) error {
		var err error
		t, err = ReadLookupTable(r, path)
		return err
	})
	if err != nil {
		log.Errorf("Failed to read lookup table from %s: %v", path, err)
		return nil, err
	}
	log.Infof("Loaded %d lookup entries from %s", t.Len(), path)
	return t, nil
}

// ReadLookupTable builds a table from CSV content; name identifies the
// source in errors. The first row is a header and is skipped. The protocol
// is lower-cased, the tag keeps its case. When a key appears more than
// once, the last row wins.
func ReadLookupTable(r io.Reader, name string) (*LookupTable, error) {
	t := &LookupTable{source: name, tags: make(map[model.PortProtocolKey]string)}
	err := readRows(r, name, 3, func(row []string) {
		key := model.NewPortProtocolKey(row[0], row[1])
		t.tags[key] = strings.TrimSpace(row[2])
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Resolve returns the tag for key. ok is false on a miss.
func (t *LookupTable) Resolve(key model.PortProtocolKey) (tag string, ok bool) {
	tag, ok = t.tags[key]
	return tag, ok
}

// Len returns the number of keys in the table.
func (t *LookupTable) Len() int {
	return len(t.tags)
}

// Source returns the name the table was loaded from.
func (t *LookupTable) Source() string {
	return t.source
}
