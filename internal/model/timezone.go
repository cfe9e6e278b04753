package model

import "strings"

// DefaultTimezone is used when a state has no mapping.
const DefaultTimezone = "central"

var stateTimezones = map[string]string{
	"AL": "central", "AK": "alaska", "AZ": "mountain", "AR": "central",
	"CA": "pacific", "CO": "mountain", "CT": "eastern", "DE": "eastern",
	"FL": "eastern", "GA": "eastern", "HI": "hawaii", "ID": "mountain",
	"IL": "central", "IN": "eastern", "IA": "central", "KS": "central",
	"KY": "eastern", "LA": "central", "ME": "eastern", "MD": "eastern",
	"MA": "eastern", "MI": "eastern", "MN": "central", "MS": "central",
	"MO": "central", "MT": "mountain", "NE": "central", "NV": "pacific",
	"NH": "eastern", "NJ": "eastern", "NM": "mountain", "NY": "eastern",
	"NC": "eastern", "ND": "central", "OH": "eastern", "OK": "central",
	"OR": "pacific", "PA": "eastern", "RI": "eastern", "SC": "eastern",
	"SD": "central", "TN": "central", "TX": "central", "UT": "mountain",
	"VT": "eastern", "VA": "eastern", "WA": "pacific", "WV": "eastern",
	"WI": "central", "WY": "mountain", "DC": "eastern",
}

// TimezoneFromState returns the call-window timezone for a two-letter state
// code, defaulting to central.
func TimezoneFromState(state string) string {
	if state == "" {
		return DefaultTimezone
	}
	if tz, ok := stateTimezones[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return tz
	}
	return DefaultTimezone
}
