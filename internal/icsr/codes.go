package icsr

import "strings"

// Controlled-vocabulary translation tables. These are fixed E2B code lists;
// lookups are case-insensitive and fall back to the list's designated
// default code.

var outcomeCodes = map[string]string{
	"recovered":                "1",
	"recovering":               "2",
	"not recovered":            "3",
	"recovered with sequelae":  "4",
	"fatal":                    "5",
	"unknown":                  "6",
}

var routeCodes = map[string]string{
	"oral":          "PO",
	"intravenous":   "IV",
	"intramuscular": "IM",
	"subcutaneous":  "SC",
	"topical":       "TOP",
	"rectal":        "PR",
}

var actionTakenCodes = map[string]string{
	"permanently discontinued": "1",
	"dose reduced":             "2",
	"dose increased":           "3",
	"dose not changed":         "4",
	"unknown":                  "5",
	"not applicable":           "6",
}

// GenderCode maps a gender string to the E2B sex code: male/m is 1, any
// other value is 2.
func GenderCode(gender string) string {
	switch strings.ToLower(gender) {
	case "male", "m":
		return "1"
	}
	return "2"
}

// OutcomeCode maps an outcome name to its E2B code, defaulting to 6
// (unknown) for unrecognized names.
func OutcomeCode(name string) string {
	if code, ok := outcomeCodes[strings.ToLower(name)]; ok {
		return code
	}
	return "6"
}

// RouteCode maps a route of administration to its HL7 code, defaulting to
// OTH for unrecognized routes.
func RouteCode(route string) string {
	if code, ok := routeCodes[strings.ToLower(route)]; ok {
		return code
	}
	return "OTH"
}

// ActionTakenCode maps an action-taken description to its E2B code,
// defaulting to 5 (unknown).
func ActionTakenCode(action string) string {
	if code, ok := actionTakenCodes[strings.ToLower(action)]; ok {
		return code
	}
	return "5"
}

// DrugRoleCode maps a drug role to its E2B characterization code by
// case-insensitive substring: suspect is 1, concomitant is 2, anything else
// is 3.
func DrugRoleCode(role string) string {
	lower := strings.ToLower(role)
	switch {
	case strings.Contains(lower, "suspect"):
		return "1"
	case strings.Contains(lower, "concomitant"):
		return "2"
	}
	return "3"
}
