package domain

import "fmt"

// EntityLevel is the aggregation level of a table's rows. Player-level rows
// are the finest; league-level the coarsest. The merger drives its join from
// the finest table present.
type EntityLevel string

const (
	LevelPlayer EntityLevel = "player"
	LevelTeam   EntityLevel = "team"
	LevelLeague EntityLevel = "league"
)

// Valid reports whether l is a declared entity level.
func (l EntityLevel) Valid() bool {
	switch l {
	case LevelPlayer, LevelTeam, LevelLeague:
		return true
	}
	return false
}

// rank orders levels finest-first for comparison.
func (l EntityLevel) rank() int {
	switch l {
	case LevelPlayer:
		return 0
	case LevelTeam:
		return 1
	case LevelLeague:
		return 2
	}
	return 3
}

// Finer reports whether l is a finer aggregation level than o.
func (l EntityLevel) Finer(o EntityLevel) bool { return l.rank() < o.rank() }

// TimeUnit is the timeline granularity of a table: individual game dates,
// calendar months, or whole seasons. Date is the finest unit.
type TimeUnit string

const (
	UnitDate   TimeUnit = "date"
	UnitMonth  TimeUnit = "month"
	UnitSeason TimeUnit = "season"
)

// Valid reports whether u is a declared time unit.
func (u TimeUnit) Valid() bool {
	switch u {
	case UnitDate, UnitMonth, UnitSeason:
		return true
	}
	return false
}

// rank orders units finest-first.
func (u TimeUnit) rank() int {
	switch u {
	case UnitDate:
		return 0
	case UnitMonth:
		return 1
	case UnitSeason:
		return 2
	}
	return 3
}

// Finer reports whether u is a finer timeline unit than o. Resampling from a
// finer unit to a coarser one aggregates; the reverse direction would invent
// data and is refused.
func (u TimeUnit) Finer(o TimeUnit) bool { return u.rank() < o.rank() }

// Granularity describes a table's key structure: the entity level, the
// columns identifying one entity, and the time column with its unit. The
// aligner and merger read it to pick resample and join strategy.
type Granularity struct {
	Level      EntityLevel `json:"level" yaml:"level"`
	EntityKeys []string    `json:"entity_keys" yaml:"entity_keys"`
	TimeColumn string      `json:"time_column" yaml:"time_column"`
	TimeUnit   TimeUnit    `json:"time_unit" yaml:"time_unit"`
}

// Clone returns an independent copy.
func (g Granularity) Clone() Granularity {
	out := g
	out.EntityKeys = append([]string(nil), g.EntityKeys...)
	return out
}

// Finer reports whether g is strictly finer than o on either axis, with the
// entity level dominant: a player-per-season table is finer than a
// team-per-date one for join purposes.
func (g Granularity) Finer(o Granularity) bool {
	if g.Level != o.Level {
		return g.Level.Finer(o.Level)
	}
	return g.TimeUnit.Finer(o.TimeUnit)
}

// String renders the granularity for logs and error context,
// e.g. "player/season(year)".
func (g Granularity) String() string {
	return fmt.Sprintf("%s/%s(%s)", g.Level, g.TimeUnit, g.TimeColumn)
}
