package database

import (
	"bytes"
	"encoding/json"
)

// Row is one result row: values keyed by the statement's result columns,
// kept in the order the statement declared them.
type Row struct {
	columns []string
	values  []any
}

// NewRow pairs columns with values. Extra values without a column are dropped.
func NewRow(columns []string, values []any) Row {
	n := len(columns)
	if len(values) < n {
		n = len(values)
	}
	return Row{columns: columns[:n], values: values[:n]}
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Values returns the values in result order.
func (r Row) Values() []any { return r.values }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Lookup returns the value of the named column.
func (r Row) Lookup(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map copies the row into a map, losing column order.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON writes the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
