package cleaner

import (
	"regexp"
	"sort"
	"strings"
)

// Franchise identities shift across eras: relocations, renames, and the
// abbreviation drift that follows them. Tables scraped from different seasons
// only join if every era maps onto one current identity, so the cleaner
// rewrites team cells through the two tables below before coercion.

// teamNames maps historical and variant franchise names to their current form.
var teamNames = map[string]string{
	"Oakland Athletics": "Athletics",
	"Oakland A's":       "Athletics",
	"Oakland":           "Athletics",

	"Cleveland Indians": "Cleveland Guardians",

	"Montreal Expos": "Washington Nationals",

	"Los Angeles Angels of Anaheim": "Los Angeles Angels",
	"Anaheim Angels":                "Los Angeles Angels",
	"California Angels":             "Los Angeles Angels",

	"Florida Marlins": "Miami Marlins",

	"Tampa Bay Devil Rays": "Tampa Bay Rays",

	"LA Angels":  "Los Angeles Angels",
	"LA Dodgers": "Los Angeles Dodgers",
	"NY Mets":    "New York Mets",
	"NY Yankees": "New York Yankees",
	"SF Giants":  "San Francisco Giants",
	"SD Padres":  "San Diego Padres",
	"TB Rays":    "Tampa Bay Rays",
	"KC Royals":  "Kansas City Royals",
}

// teamAbbreviations maps retired abbreviations to their current form.
// SF and TB are deliberately missing: they collide with the sacrifice-fly
// and total-bases stat columns and cannot be rewritten blindly.
var teamAbbreviations = map[string]string{
	"OAK": "ATH",
	"CWS": "CHW",
	"KC":  "KCR",
	"KAN": "KCR",
	"SD":  "SDP",
	"WAS": "WSN",
	"WSH": "WSN",
	"ANA": "LAA",
	"CAL": "LAA",
	"FLA": "MIA",
	"MON": "WSN",
	"TBD": "TBR",
	"CLV": "CLE",
}

// namesByLength holds the historical names longest-first so that embedded
// replacement rewrites "Oakland Athletics" before "Oakland" gets a chance to
// split it. Map iteration order would make the outcome depend on chance.
var namesByLength = func() []string {
	out := make([]string, 0, len(teamNames))
	for name := range teamNames {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// footnoteSuffix matches the rank and footnote decorations some sources glue
// onto a team cell: "Boston Red Sox (1)", "Atlanta Braves*", "New York Mets†".
var footnoteSuffix = regexp.MustCompile(`\s*(\([0-9]+\)|[*†‡])+$`)

// embeddedAbbrevs match an old abbreviation fused to a following number, as in
// "OAK4.0" cells from width-collapsed scrape output. The captured continuation
// keeps "OAKS" and other longer tokens untouched.
var embeddedAbbrevs = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(teamAbbreviations))
	for old := range teamAbbreviations {
		out[old] = regexp.MustCompile(`(?i)\b` + old + `([\d.\-])`)
	}
	return out
}()

// StandardizeTeam rewrites one team cell to its current franchise identity.
// Footnote decorations are stripped first, then exact name and abbreviation
// matches apply, then embedded occurrences inside mixed cells such as
// "Philadelphia Phillies18.5" or "OAK4.0". Unrecognized values pass through
// unchanged.
func StandardizeTeam(value string) string {
	s := strings.TrimSpace(value)
	s = footnoteSuffix.ReplaceAllString(s, "")

	if mapped, ok := teamNames[s]; ok {
		return mapped
	}
	if mapped, ok := teamAbbreviations[strings.ToUpper(s)]; ok {
		return mapped
	}

	for _, old := range namesByLength {
		if strings.Contains(s, old) {
			s = strings.ReplaceAll(s, old, teamNames[old])
		}
	}
	for old, re := range embeddedAbbrevs {
		s = re.ReplaceAllString(s, teamAbbreviations[old]+"${1}")
	}
	return s
}
