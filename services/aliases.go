package services

import (
	"strings"
	"unicode"
)

// defaultAliases maps search slugs to the neighborhood names StreetEasy
// legitimately returns for them, sub-neighborhoods included (e.g. Manhattan
// Valley under the Upper West Side). A card whose label is not in its slug's
// set is a sponsored placement from an unrelated area.
var defaultAliases = map[string][]string{
	"east-village":       {"East Village"},
	"west-village":       {"West Village"},
	"upper-west-side":    {"Upper West Side", "Manhattan Valley", "Lincoln Square"},
	"chelsea":            {"Chelsea", "West Chelsea"},
	"les":                {"Lower East Side", "Two Bridges", "Chinatown"},
	"upper-east-side":    {"Upper East Side", "Yorkville", "Carnegie Hill", "Lenox Hill"},
	"hells-kitchen":      {"Hell's Kitchen", "Midtown West"},
	"murray-hill":        {"Murray Hill", "Kips Bay"},
	"gramercy-park":      {"Gramercy Park", "Gramercy", "Kips Bay"},
	"flatiron":           {"Flatiron", "NoMad"},
	"kips-bay":           {"Kips Bay"},
	"greenwich-village":  {"Greenwich Village"},
	"soho":               {"SoHo"},
	"tribeca":            {"Tribeca"},
	"financial-district": {"Financial District", "FiDi"},
	"williamsburg":       {"Williamsburg", "East Williamsburg"},
	"greenpoint":         {"Greenpoint"},
	"park-slope":         {"Park Slope"},
	"bushwick":           {"Bushwick"},
	"bed-stuy":           {"Bedford-Stuyvesant", "Bed-Stuy"},
	"astoria":            {"Astoria"},
	"long-island-city":   {"Long Island City"},
}

// AliasTable answers whether a card's reported neighborhood is a sponsored
// substitute for the searched one. It has no side effects and is passed
// explicitly into the filter for the duration of a run.
type AliasTable struct {
	entries map[string]map[string]struct{}
}

// NewAliasTable builds the table from the built-in slug mapping.
func NewAliasTable() *AliasTable {
	return NewAliasTableFrom(defaultAliases)
}

// NewAliasTableFrom builds a table from an explicit slug → accepted-names
// mapping. Each slug's canonical display name (derived from the slug itself)
// is always accepted.
func NewAliasTableFrom(aliases map[string][]string) *AliasTable {
	entries := make(map[string]map[string]struct{}, len(aliases))
	for slug, names := range aliases {
		set := make(map[string]struct{}, len(names)+1)
		for _, name := range names {
			set[normalizeName(name)] = struct{}{}
		}
		set[normalizeName(displayName(slug))] = struct{}{}
		entries[slug] = set
	}
	return &AliasTable{entries: entries}
}

// IsSponsored reports whether rawNeighborhood is a sponsored substitute for
// searchedSlug. With no entry configured for the slug it always returns
// false, so unconfigured neighborhoods still produce listings — just without
// sponsored suppression. A card with an empty neighborhood label on a
// configured slug counts as sponsored: StreetEasy omits the standard label
// on sponsored placements.
func (t *AliasTable) IsSponsored(searchedSlug, rawNeighborhood string) bool {
	accepted, ok := t.entries[searchedSlug]
	if !ok {
		return false
	}
	name := normalizeName(rawNeighborhood)
	if name == "" {
		return true
	}
	_, member := accepted[name]
	return !member
}

// HasEntry reports whether sponsored filtering is configured for a slug.
func (t *AliasTable) HasEntry(searchedSlug string) bool {
	_, ok := t.entries[searchedSlug]
	return ok
}

// normalizeName lowercases a neighborhood name and collapses internal
// whitespace so comparisons are case- and whitespace-insensitive.
func normalizeName(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}

// displayName turns a slug like "east-village" into "East Village".
func displayName(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
