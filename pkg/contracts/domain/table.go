package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the declared semantic type of a column. Every column of a
// cleaned table carries exactly one of these; the cleaner coerces raw text
// into it and refuses values that do not parse.
type ColumnType string

const (
	TypeDate     ColumnType = "date"
	TypeFloat    ColumnType = "float"
	TypeInteger  ColumnType = "integer"
	TypeCategory ColumnType = "category"
)

// Valid reports whether t is one of the declared column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeDate, TypeFloat, TypeInteger, TypeCategory:
		return true
	}
	return false
}

// Numeric reports whether the type supports arithmetic (mean imputation,
// interpolation, sum/mean aggregation).
func (t ColumnType) Numeric() bool {
	return t == TypeFloat || t == TypeInteger
}

// Field is one column of a typed schema.
type Field struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is the ordered column list of a typed table. Order matters: rows are
// positional and CSV output preserves it.
type Schema []Field

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Clone returns an independent copy of the schema.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// CellKind discriminates the value held by a Cell. KindAbsent is the explicit
// absent-marker: raw tables may contain it freely, cleaned tables never do.
type CellKind uint8

const (
	KindAbsent CellKind = iota
	KindFloat
	KindInt
	KindDate
	KindCategory
)

// String returns the kind name used in error context and logs.
func (k CellKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	case KindCategory:
		return "category"
	}
	return "unknown"
}

// Cell is one typed value of a table. Exactly one of the value fields is
// meaningful, selected by Kind. Cells are values: copying one is enough to
// own it, which is what keeps table hand-off between stages immutable.
type Cell struct {
	Kind     CellKind  `json:"kind"`
	Float    float64   `json:"float,omitempty"`
	Int      int64     `json:"int,omitempty"`
	Date     time.Time `json:"date,omitempty"`
	Category string    `json:"category,omitempty"`
}

// Absent returns the explicit absent-marker cell.
func Absent() Cell { return Cell{Kind: KindAbsent} }

// FloatCell returns a float-valued cell.
func FloatCell(f float64) Cell { return Cell{Kind: KindFloat, Float: f} }

// IntCell returns an integer-valued cell.
func IntCell(i int64) Cell { return Cell{Kind: KindInt, Int: i} }

// DateCell returns a date-valued cell, truncated to UTC midnight so equal
// calendar dates compare equal regardless of source time zone.
func DateCell(t time.Time) Cell {
	y, m, d := t.UTC().Date()
	return Cell{Kind: KindDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// CategoryCell returns a category-valued cell.
func CategoryCell(s string) Cell { return Cell{Kind: KindCategory, Category: s} }

// IsAbsent reports whether the cell is the absent-marker.
func (c Cell) IsAbsent() bool { return c.Kind == KindAbsent }

// Numeric returns the cell's value as a float64. The second result is false
// for non-numeric cells (absent, date, category).
func (c Cell) Numeric() (float64, bool) {
	switch c.Kind {
	case KindFloat:
		return c.Float, true
	case KindInt:
		return float64(c.Int), true
	}
	return 0, false
}

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindAbsent:
		return true
	case KindFloat:
		return c.Float == o.Float
	case KindInt:
		return c.Int == o.Int
	case KindDate:
		return c.Date.Equal(o.Date)
	case KindCategory:
		return c.Category == o.Category
	}
	return false
}

// Compare orders two cells of the same kind: -1, 0, or +1. Absent sorts
// before everything; mixed kinds order by kind. Used for deterministic row
// ordering in aligned output and group-key construction.
func (c Cell) Compare(o Cell) int {
	if c.Kind != o.Kind {
		if c.Kind < o.Kind {
			return -1
		}
		return 1
	}
	switch c.Kind {
	case KindFloat:
		switch {
		case c.Float < o.Float:
			return -1
		case c.Float > o.Float:
			return 1
		}
	case KindInt:
		switch {
		case c.Int < o.Int:
			return -1
		case c.Int > o.Int:
			return 1
		}
	case KindDate:
		switch {
		case c.Date.Before(o.Date):
			return -1
		case c.Date.After(o.Date):
			return 1
		}
	case KindCategory:
		return strings.Compare(c.Category, o.Category)
	}
	return 0
}

// String renders the cell in its canonical text form: floats round-trip,
// dates use "2006-01-02", absent renders as the empty string. Exporters that
// need a different absent token substitute their own.
func (c Cell) String() string {
	switch c.Kind {
	case KindFloat:
		return strconv.FormatFloat(c.Float, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(c.Int, 10)
	case KindDate:
		return c.Date.Format("2006-01-02")
	case KindCategory:
		return c.Category
	}
	return ""
}

// Row is one positional record of a typed table, aligned with its Schema.
type Row []Cell

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Key builds a composite group key from the cells at the given positions.
// The unit separator keeps adjacent values from colliding ("a","bc" vs
// "ab","c").
func (r Row) Key(idx []int) string {
	var b strings.Builder
	for n, i := range idx {
		if n > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(r[i].String())
	}
	return b.String()
}

// RawRow is one record of an untyped table: column name to the raw text
// exactly as read from the source. A column missing from the map means the
// source row had no value there at all.
type RawRow map[string]string

// RawTable is an ordered sequence of raw records from one source dataset.
// The loader produces it and performs no typing; interpreting absent markers
// and coercing values is the cleaner's job. Owned solely by the loader until
// handed to the cleaner, and never mutated afterwards.
type RawTable struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Rows    []RawRow `json:"rows"`
}

// RowCount returns the number of records.
func (t *RawTable) RowCount() int { return len(t.Rows) }

// HasColumn reports whether the header named the column.
func (t *RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// CleanTable is a typed table: every column coerced to its declared type and
// every absent value resolved by an imputation rule. Invariant: no cell is
// the absent-marker.
type CleanTable struct {
	Source      string      `json:"source"`
	Schema      Schema      `json:"schema"`
	Rows        []Row       `json:"rows"`
	Granularity Granularity `json:"granularity"`
}

// RowCount returns the number of records.
func (t *CleanTable) RowCount() int { return len(t.Rows) }

// ColumnIndex returns the schema position of the named column, or -1.
func (t *CleanTable) ColumnIndex(name string) int { return t.Schema.Index(name) }

// Column returns all cells of the named column in row order. The second
// result is false when the column does not exist.
func (t *CleanTable) Column(name string) ([]Cell, bool) {
	i := t.Schema.Index(name)
	if i < 0 {
		return nil, false
	}
	col := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		col[r] = row[i]
	}
	return col, true
}

// Clone returns a deep copy. Stages clone before deriving so the input table
// stays untouched.
func (t *CleanTable) Clone() *CleanTable {
	out := &CleanTable{
		Source:      t.Source,
		Schema:      t.Schema.Clone(),
		Rows:        make([]Row, len(t.Rows)),
		Granularity: t.Granularity.Clone(),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// AlignedTable is a CleanTable re-expressed at a common timeline unit. Its
// time column holds canonical bucket values and no two rows share the same
// (entity keys, time bucket) pair.
type AlignedTable struct {
	Source      string      `json:"source"`
	Schema      Schema      `json:"schema"`
	Rows        []Row       `json:"rows"`
	Granularity Granularity `json:"granularity"`
	PrimaryKey  []string    `json:"primary_key"`
}

// RowCount returns the number of records.
func (t *AlignedTable) RowCount() int { return len(t.Rows) }

// ColumnIndex returns the schema position of the named column, or -1.
func (t *AlignedTable) ColumnIndex(name string) int { return t.Schema.Index(name) }

// MergedTable is the join product of multiple aligned tables: one row per
// (finest-granularity entity, time) pair, coarser columns broadcast across
// the matching finer rows. Explicitly-absent cells mark coarse rows that had
// no match; they are the only absent cells allowed downstream of cleaning.
type MergedTable struct {
	Schema  Schema   `json:"schema"`
	Rows    []Row    `json:"rows"`
	Sources []string `json:"sources"`
	Driver  string   `json:"driver"`
}

// RowCount returns the number of records.
func (t *MergedTable) RowCount() int { return len(t.Rows) }

// ColumnIndex returns the schema position of the named column, or -1.
func (t *MergedTable) ColumnIndex(name string) int { return t.Schema.Index(name) }

// AbsentCells counts explicit absent-markers, the broadcast gaps left by
// unmatched coarse rows. Useful for run reports.
func (t *MergedTable) AbsentCells() int {
	n := 0
	for _, row := range t.Rows {
		for _, c := range row {
			if c.IsAbsent() {
				n++
			}
		}
	}
	return n
}

// ParseCell parses raw text into a cell of the declared type. It trims
// surrounding space and accepts thousands separators in numerics; it does not
// treat any text as absent, that interpretation belongs to the caller.
func ParseCell(raw string, t ColumnType) (Cell, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case TypeCategory:
		return CategoryCell(s), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return Absent(), fmt.Errorf("parse %q as float: %w", raw, err)
		}
		return FloatCell(f), nil
	case TypeInteger:
		i, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
		if err != nil {
			return Absent(), fmt.Errorf("parse %q as integer: %w", raw, err)
		}
		return IntCell(i), nil
	case TypeDate:
		d, err := ParseDate(s)
		if err != nil {
			return Absent(), err
		}
		return DateCell(d), nil
	}
	return Absent(), fmt.Errorf("unknown column type %q", t)
}

// dateFormats are tried in order when parsing date cells. Season years parse
// through the bare-year form.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	"2006",
}

// ParseDate parses a date in any of the accepted source formats.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse %q as date: unrecognized format", s)
}
