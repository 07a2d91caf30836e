package repo

import (
	"bytes"
	"cmp"
	"slices"
	"time"

	"bookshelf/internal/resource"
)

// Column maps a resource field to a SQL column.
type Column struct {
	Field string
	// Name is the SQL column; defaults to Field.
	Name string
	// Default is the server-side default. The postgres schema declares it
	// in DDL; MemStore evaluates it on insert.
	Default func() any
	// Unique mirrors a UNIQUE constraint. MemStore enforces it on write;
	// postgres enforces it in DDL.
	Unique bool
	// Array marks a BIGINT[] column holding []int64. Filters on it match
	// rows containing the value.
	Array bool
}

func (c Column) column() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Field
}

// Table describes how a resource is laid out in storage. The id column is
// implicit.
type Table struct {
	Name    string
	Columns []Column
	// SoftDelete names the boolean field flagging logically deleted rows.
	SoftDelete string
}

func (t Table) lookup(field string) (Column, bool) {
	if field == "id" {
		return Column{Field: "id"}, true
	}
	for _, c := range t.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// Const returns a Default yielding v.
func Const(v any) func() any {
	return func() any { return v }
}

// Now is the Default of timestamp columns.
func Now() any { return time.Now().UTC() }

// equalValues compares normalized attribute values.
func equalValues(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if ba, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ba, bb)
	}
	return a == b
}

// compareValues orders normalized attribute values; nil sorts first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch va := a.(type) {
	case int64:
		vb, _ := b.(int64)
		return cmp.Compare(va, vb)
	case string:
		vb, _ := b.(string)
		return cmp.Compare(va, vb)
	case bool:
		vb, _ := b.(bool)
		return cmp.Compare(boolInt(va), boolInt(vb))
	case time.Time:
		vb, _ := b.(time.Time)
		return va.Compare(vb)
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// normalize widens driver integer types to int64 and arrays to []int64.
func normalize(attrs resource.Attrs) resource.Attrs {
	for k, v := range attrs {
		switch n := v.(type) {
		case int16:
			attrs[k] = int64(n)
		case int32:
			attrs[k] = int64(n)
		case int:
			attrs[k] = int64(n)
		case []int64:
			attrs[k] = slices.Clone(n)
		case []any:
			ids := make([]int64, 0, len(n))
			for _, item := range n {
				switch id := item.(type) {
				case int64:
					ids = append(ids, id)
				case int32:
					ids = append(ids, int64(id))
				}
			}
			attrs[k] = ids
		}
	}
	return attrs
}
