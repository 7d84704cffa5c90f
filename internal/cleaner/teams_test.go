package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizeTeamNames(t *testing.T) {
	cases := map[string]string{
		"Oakland Athletics":             "Athletics",
		"Oakland A's":                   "Athletics",
		"Cleveland Indians":             "Cleveland Guardians",
		"Montreal Expos":                "Washington Nationals",
		"Florida Marlins":               "Miami Marlins",
		"Tampa Bay Devil Rays":          "Tampa Bay Rays",
		"Anaheim Angels":                "Los Angeles Angels",
		"California Angels":             "Los Angeles Angels",
		"Los Angeles Angels of Anaheim": "Los Angeles Angels",
		"NY Yankees":                    "New York Yankees",
		"Boston Red Sox":                "Boston Red Sox",
	}
	for in, want := range cases {
		assert.Equal(t, want, StandardizeTeam(in), "input %q", in)
	}
}

func TestStandardizeTeamAbbreviations(t *testing.T) {
	cases := map[string]string{
		"OAK": "ATH",
		"CWS": "CHW",
		"KC":  "KCR",
		"SD":  "SDP",
		"WAS": "WSN",
		"WSH": "WSN",
		"MON": "WSN",
		"TBD": "TBR",
		"CLV": "CLE",
		"FLA": "MIA",
		"BOS": "BOS",
		"NYY": "NYY",
	}
	for in, want := range cases {
		assert.Equal(t, want, StandardizeTeam(in), "input %q", in)
	}
}

func TestStandardizeTeamStripsFootnotes(t *testing.T) {
	assert.Equal(t, "Boston Red Sox", StandardizeTeam("Boston Red Sox (1)"))
	assert.Equal(t, "Atlanta Braves", StandardizeTeam("Atlanta Braves*"))
	assert.Equal(t, "New York Mets", StandardizeTeam("New York Mets†"))
	assert.Equal(t, "Athletics", StandardizeTeam("Oakland Athletics (4)"))
}

func TestStandardizeTeamEmbeddedValues(t *testing.T) {
	// Width-collapsed scrape cells fuse the identity to a number
	assert.Equal(t, "Athletics18.5", StandardizeTeam("Oakland Athletics18.5"))
	assert.Equal(t, "ATH4.0", StandardizeTeam("OAK4.0"))
	assert.Equal(t, "WSN-1.2", StandardizeTeam("MON-1.2"))
}

func TestStandardizeTeamLeavesStatTokensAlone(t *testing.T) {
	// SF and TB are stat columns, not abbreviations; and longer tokens
	// sharing an abbreviation prefix must not be rewritten
	assert.Equal(t, "SF", StandardizeTeam("SF"))
	assert.Equal(t, "TB", StandardizeTeam("TB"))
	assert.Equal(t, "OAKS", StandardizeTeam("OAKS"))
}

func TestStandardizeTeamTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "Athletics", StandardizeTeam("  Oakland Athletics  "))
}
