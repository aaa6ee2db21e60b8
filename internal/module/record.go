// Package module defines the records the scanner produces and the publisher
// consumes, along with the category precedence used to order them.
package module

import (
	"sort"
	"strings"
)

// Record is one module discovered in the backoffice module list.
// URL is the module's administration page and the unique key within a
// snapshot. Name is the display name, used for logging and as the sort
// tie-break. Suffix is the category code parsed from the module name.
type Record struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Suffix string `json:"suffix"`
}

// Category codes in processing order. Modules are republished layer by
// layer: object store first, then business logic, integrations, and UI.
// Anything unrecognized is coerced to CategoryOther and processed last.
const (
	CategoryOS    = "OS"
	CategoryBL    = "BL"
	CategoryINT   = "INT"
	CategoryUI    = "UI"
	CategoryOther = "OTHER"
)

// hierarchy maps each recognized category to its processing rank.
var hierarchy = map[string]int{
	CategoryOS:  0,
	CategoryBL:  1,
	CategoryINT: 2,
	CategoryUI:  3,
}

// Normalize returns the canonical form of a category code. Unrecognized
// codes (including the empty string) normalize to CategoryOther.
func Normalize(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := hierarchy[c]; ok {
		return c
	}
	return CategoryOther
}

// Known reports whether code is a recognized category.
func Known(code string) bool {
	_, ok := hierarchy[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Rank returns the processing rank of a category code. Unrecognized codes
// rank after every recognized one.
func Rank(code string) int {
	if r, ok := hierarchy[Normalize(code)]; ok {
		return r
	}
	return len(hierarchy)
}

// Sort orders records in place by category rank, ties broken by name.
// The sort is stable so equal records keep their input order.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := Rank(records[i].Suffix), Rank(records[j].Suffix)
		if ri != rj {
			return ri < rj
		}
		return records[i].Name < records[j].Name
	})
}

// Dedupe returns records with duplicate URLs removed, first occurrence
// wins. Input order is preserved for the survivors.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}

// Filter returns the subsequence of records whose category is in the set.
// An empty set means no filtering and returns records unchanged.
func Filter(records []Record, categories map[string]bool) []Record {
	if len(categories) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if categories[Normalize(r.Suffix)] {
			out = append(out, r)
		}
	}
	return out
}

// SuffixOf derives the category code from a module display name. The
// console names modules "<project>_<code>"; the token after the last
// underscore is the code, coerced to CategoryOther when unrecognized.
func SuffixOf(name string) string {
	idx := strings.LastIndex(name, "_")
	if idx < 0 || idx == len(name)-1 {
		return CategoryOther
	}
	return Normalize(name[idx+1:])
}

// ParseCategories parses a comma-separated, case-insensitive category list
// into a set of canonical codes. It returns the set plus any tokens that
// did not match a recognized category. Empty input yields an empty set.
func ParseCategories(arg string) (map[string]bool, []string) {
	set := make(map[string]bool)
	var unknown []string
	for _, tok := range strings.Split(arg, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if Known(tok) {
			set[Normalize(tok)] = true
		} else {
			unknown = append(unknown, tok)
		}
	}
	return set, unknown
}
