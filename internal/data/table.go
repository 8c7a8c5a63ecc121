package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Identified is implemented by every record kind so Table[T] can build both
// the ID index and, for kinds that carry a Name, the name index.
type Identified interface {
	RecordID() int32
}

// Named is implemented by record kinds that support LookupByName.
type Named interface {
	RecordName() string
}

// Table is a generic, read-only-after-load index over one record kind.
// It replaces the teacher's N hand-written per-kind tables (ItemTable,
// SkillTable, NpcTable, ...) with one generic store instantiated per kind.
type Table[T Identified] struct {
	byID   map[int32]T
	byName map[string]int32
}

// LoadTable reads a YAML document whose top level is the list of records
// and builds a Table from it, grounded on the teacher's
// data.LoadSkillTable/LoadItemTable loader shape (single os.ReadFile +
// yaml.Unmarshal, no external template engine).
func LoadTable[T Identified](path string, entries *[]T) (*Table[T], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable[T](nil), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewTable(*entries), nil
}

// NewTable builds a Table directly from an already-decoded slice.
func NewTable[T Identified](entries []T) *Table[T] {
	t := &Table[T]{
		byID:   make(map[int32]T, len(entries)),
		byName: make(map[string]int32, len(entries)),
	}
	for _, e := range entries {
		t.byID[e.RecordID()] = e
		if n, ok := any(e).(Named); ok && n.RecordName() != "" {
			t.byName[n.RecordName()] = e.RecordID()
		}
	}
	return t
}

// Lookup returns the record for id, or the zero value and false if absent.
// A miss is never fatal — callers treat it as a silent no-op (spec §4.1).
func (t *Table[T]) Lookup(id int32) (T, bool) {
	v, ok := t.byID[id]
	return v, ok
}

// LookupByName resolves a record's ID by its exact name.
func (t *Table[T]) LookupByName(name string) (int32, bool) {
	id, ok := t.byName[name]
	return id, ok
}

func (t *Table[T]) Count() int { return len(t.byID) }

// All returns every record (order unspecified) — used to build derived
// indices once at load (fusion ranges, default skill lists, ...).
func (t *Table[T]) All() []T {
	out := make([]T, 0, len(t.byID))
	for _, v := range t.byID {
		out = append(out, v)
	}
	return out
}
