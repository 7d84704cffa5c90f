// Package merger joins aligned tables into the pipeline's single output.
//
// The join is left-biased: the finest-granularity table drives, every one of
// its rows appears exactly once, and each coarser table broadcasts its
// columns onto the driver rows matching its primary key. Driver rows with no
// match in a coarser table carry explicit absent cells for that table's
// columns rather than being dropped.
//
// Key declarations are enforced at entry: a join key missing from the
// driver's schema, or a coarser table holding two rows for one key tuple,
// is a key-conflict error and ends the run.
package merger
