// Package document holds the JSON side of a conversion: header-ordered
// records and the encoder that writes a record set as one indented array.
package document

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultOverflowKey holds the surplus cells of rows longer than the header.
const DefaultOverflowKey = "_extra"

// Record maps column names to cell values. Keys are emitted in the order they
// were first set; setting an existing key replaces its value in place.
type Record struct {
	m *orderedmap.OrderedMap[string, any]
}

func NewRecord(capacity int) *Record {
	return &Record{
		m: orderedmap.New[string, any](
			orderedmap.WithCapacity[string, any](capacity),
		),
	}
}

// FromRow pairs row cells with header names by position. Columns the row is
// missing are set to null. Cells past the end of the header are collected
// under overflowKey as a list.
func FromRow(header, row []string, overflowKey string) *Record {
	r := NewRecord(len(header) + 1)
	for i, name := range header {
		if i < len(row) {
			r.Set(name, row[i])
		} else {
			r.SetNull(name)
		}
	}
	if len(row) > len(header) {
		extra := make([]string, len(row)-len(header))
		copy(extra, row[len(header):])
		r.SetList(overflowKey, extra)
	}
	return r
}

func (r *Record) Set(key, value string) { r.m.Set(key, value) }

func (r *Record) SetNull(key string) { r.m.Set(key, nil) }

func (r *Record) SetList(key string, values []string) { r.m.Set(key, values) }

// Keys returns the record's keys in emission order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.m.Len())
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the value stored under key: a string, nil for a missing cell,
// or []string for overflow cells.
func (r *Record) Get(key string) (any, bool) {
	return r.m.Get(key)
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return r.m.MarshalJSON()
}
