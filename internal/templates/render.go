// Package templates renders admin-editable message texts with {key} placeholders.
package templates

import (
	"sort"
	"strings"
)

// Render replaces every occurrence of {key} for each key in vars.
// Matching is case-sensitive; unknown placeholders are left as-is.
// Substitution is single-pass, so values are never re-expanded.
func Render(tpl string, vars map[string]string) string {
	if tpl == "" || len(vars) == 0 {
		return tpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// Or returns tpl unless it is blank, in which case fallback.
func Or(tpl, fallback string) string {
	if strings.TrimSpace(tpl) == "" {
		return fallback
	}
	return tpl
}
