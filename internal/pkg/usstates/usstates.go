// Package usstates normalizes US state names to their postal codes.
package usstates

import "strings"

var codes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "florida": "FL", "georgia": "GA",
	"hawaii": "HI", "idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV", "new hampshire": "NH", "new jersey": "NJ",
	"new mexico": "NM", "new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// Code returns the postal code for a full state name, case-insensitively.
// Anything else is returned trimmed and upper-cased, so codes pass through.
func Code(s string) string {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if c, ok := codes[key]; ok {
		return c
	}
	return strings.ToUpper(key)
}

// Known reports whether s is a state name or postal code.
func Known(s string) bool {
	c := Code(s)
	for _, v := range codes {
		if v == c {
			return true
		}
	}
	return false
}
