package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityLevelFiner(t *testing.T) {
	assert.True(t, LevelPlayer.Finer(LevelTeam))
	assert.True(t, LevelTeam.Finer(LevelLeague))
	assert.True(t, LevelPlayer.Finer(LevelLeague))
	assert.False(t, LevelTeam.Finer(LevelPlayer))
	assert.False(t, LevelTeam.Finer(LevelTeam))
}

func TestTimeUnitFiner(t *testing.T) {
	assert.True(t, UnitDate.Finer(UnitMonth))
	assert.True(t, UnitMonth.Finer(UnitSeason))
	assert.True(t, UnitDate.Finer(UnitSeason))
	assert.False(t, UnitSeason.Finer(UnitDate))
	assert.False(t, UnitSeason.Finer(UnitSeason))
}

func TestGranularityFiner(t *testing.T) {
	playerSeason := Granularity{Level: LevelPlayer, TimeUnit: UnitSeason}
	teamDate := Granularity{Level: LevelTeam, TimeUnit: UnitDate}
	teamSeason := Granularity{Level: LevelTeam, TimeUnit: UnitSeason}

	// Entity level dominates the time axis.
	assert.True(t, playerSeason.Finer(teamDate))
	assert.False(t, teamDate.Finer(playerSeason))

	// Same level falls back to the time unit.
	assert.True(t, teamDate.Finer(teamSeason))
	assert.False(t, teamSeason.Finer(teamSeason))
}

func TestGranularityString(t *testing.T) {
	g := Granularity{
		Level:      LevelPlayer,
		EntityKeys: []string{"player_id"},
		TimeColumn: "season",
		TimeUnit:   UnitSeason,
	}
	assert.Equal(t, "player/season(season)", g.String())
}

func TestValidEnums(t *testing.T) {
	assert.True(t, LevelPlayer.Valid())
	assert.False(t, EntityLevel("franchise").Valid())
	assert.True(t, UnitSeason.Valid())
	assert.False(t, TimeUnit("week").Valid())
	assert.True(t, TypeFloat.Valid())
	assert.False(t, ColumnType("decimal").Valid())
	assert.True(t, TypeInteger.Numeric())
	assert.False(t, TypeCategory.Numeric())
}
