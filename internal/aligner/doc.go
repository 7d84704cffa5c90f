// Package aligner resamples cleaned tables onto a common timeline unit.
//
// Each table declares its own time unit (date, month, season); the pipeline
// declares one target. Tables at a finer unit aggregate into target buckets
// under per-column policies (sum, mean, last); tables already at the target
// pass through with their time values normalized to the canonical bucket
// form. Asking a coarser table to produce finer rows is refused with a
// granularity-mismatch error, because that direction invents data.
//
// Canonical buckets: a season is its integer year, a month is the
// first-of-month UTC date, a date is the day-precision UTC date. Output rows
// are sorted by (bucket, entity keys) and no two rows share that tuple, so
// aligning the same table twice yields byte-identical output.
package aligner
