// Package cleaner turns raw tables into typed tables.
//
// Every configured column is coerced to its declared type (date, float,
// integer, category) and every absent value is resolved by the column's
// imputation rule: mean, interpolate, drop_row, constant, or none. The
// invariant on the way out is totality: a cleaned table contains no absent
// cell, because each strategy either fills the gap or fails the run.
//
// Two domain normalizations run before coercion. Team columns are rewritten
// to current franchise identities so tables from different eras join, and
// currency columns collapse payroll formatting ("$71.3M", "$71,333,575") to
// whole dollars using exact decimal arithmetic.
//
// Cleaning errors are terminal. A value that will not coerce raises a
// type-coercion error unless the column policy downgrades it to absent; a
// column that cannot be imputed raises an insufficient-data error.
package cleaner
