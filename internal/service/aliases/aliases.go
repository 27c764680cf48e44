// Package aliases canonicalizes streaming provider brand names so the
// same logical service never shows up twice under different spellings.
package aliases

import "strings"

// Table maps a lowercased raw brand string to its canonical name.
// Unknown brands pass through trimmed but otherwise untouched.
type Table struct {
	canonical map[string]string
}

func New() *Table {
	return &Table{canonical: defaultAliases}
}

// NewWithAliases builds a table from caller-supplied data, e.g. a
// static aliases file shipped with the deployment.
func NewWithAliases(aliases map[string]string) *Table {
	canonical := make(map[string]string, len(aliases))
	for raw, name := range aliases {
		canonical[normalize(raw)] = name
	}
	return &Table{canonical: canonical}
}

// Canonical resolves a raw provider brand string to its canonical name.
func (t *Table) Canonical(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if name, ok := t.canonical[normalize(trimmed)]; ok {
		return name
	}
	return trimmed
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var defaultAliases = map[string]string{
	"netflix":                     "Netflix",
	"netflix standard with ads":   "Netflix",
	"netflix basic with ads":      "Netflix",
	"amazon prime video":          "Prime Video",
	"amazon prime video with ads": "Prime Video",
	"prime video":                 "Prime Video",
	"amazon video":                "Prime Video",
	"disney plus":                 "Disney+",
	"disney+":                     "Disney+",
	"hulu":                        "Hulu",
	"max":                         "Max",
	"hbo max":                     "Max",
	"max amazon channel":          "Max",
	"apple tv plus":               "Apple TV+",
	"apple tv+":                   "Apple TV+",
	"apple tv":                    "Apple TV+",
	"paramount plus":              "Paramount+",
	"paramount+":                  "Paramount+",
	"peacock":                     "Peacock",
	"peacock premium":             "Peacock",
	"peacock premium plus":        "Peacock",
	"tubi":                        "Tubi",
	"tubi tv":                     "Tubi",
	"pluto tv":                    "Pluto TV",
	"the roku channel":            "Roku Channel",
	"roku channel":                "Roku Channel",
	"freevee":                     "Freevee",
	"amazon freevee":              "Freevee",
	"crackle":                     "Crackle",
	"sony crackle":                "Crackle",
	"mubi":                        "MUBI",
	"mubi amazon channel":         "MUBI",
	"shudder":                     "Shudder",
	"shudder amazon channel":      "Shudder",
	"criterion channel":           "Criterion Channel",
	"the criterion channel":       "Criterion Channel",
	"kanopy":                      "Kanopy",
	"plex":                        "Plex",
	"plex channel":                "Plex",
}
