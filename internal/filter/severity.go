package filter

import "strings"

// Severities lists the known severity names from least to most urgent.
var Severities = []string{"VeryVerbose", "Verbose", "Log", "Display", "Warning", "Error", "Fatal"}

var severityRank = map[string]int{
	"veryverbose": 0,
	"verbose":     1,
	"debug":       1,
	"log":         2,
	"display":     3,
	"info":        3,
	"warning":     4,
	"warn":        4,
	"error":       5,
	"fatal":       6,
	"critical":    6,
}

// SeverityRank returns the position of name in the severity order. Matching is
// case-insensitive; common aliases (warn, info, debug, critical) are accepted.
func SeverityRank(name string) (int, bool) {
	rank, ok := severityRank[strings.ToLower(strings.TrimSpace(name))]
	return rank, ok
}
