package color

import "sort"

var colorKeys = map[string]struct{}{
	"back_color":                    {},
	"border_color":                  {},
	"text_color":                    {},
	"hilited_text_color":            {},
	"hilited_back_color":            {},
	"hilited_candidate_text_color":  {},
	"hilited_candidate_back_color":  {},
	"hilited_candidate_label_color": {},
	"hilited_comment_text_color":    {},
	"candidate_text_color":          {},
	"candidate_back_color":          {},
	"comment_text_color":            {},
	"label_color":                   {},
	"preedit_back_color":            {},
}

// IsColorKey reports whether a field name holds a BGR color.
func IsColorKey(name string) bool {
	_, ok := colorKeys[name]
	return ok
}

// Keys returns the color-bearing field names, sorted.
func Keys() []string {
	out := make([]string, 0, len(colorKeys))
	for key := range colorKeys {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
