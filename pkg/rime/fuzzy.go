package rime

import "strings"

const (
	derivePrefix         = "derive/"
	commentedDerivePrefix = "# - derive/"
)

// FuzzyRule is a pair of spelling algebra derivations that make two
// spellings interchangeable.
type FuzzyRule struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Derive  string `json:"derive"`
	Reverse string `json:"reverse"`
}

// FuzzyGroup groups rules for display.
type FuzzyGroup struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Rules []FuzzyRule `json:"rules"`
}

// FuzzyPinyinGroups are the fuzzy rules offered for pinyin schemas.
var FuzzyPinyinGroups = []FuzzyGroup{
	{
		Key:   "initials",
		Label: "声母",
		Rules: []FuzzyRule{
			{From: "zh", To: "z", Derive: "derive/^([zcs])h/$1/", Reverse: "derive/^([zcs])([^h])/$1h$2/"},
			{From: "ch", To: "c", Derive: "derive/^([zcs])h/$1/", Reverse: "derive/^([zcs])([^h])/$1h$2/"},
			{From: "sh", To: "s", Derive: "derive/^([zcs])h/$1/", Reverse: "derive/^([zcs])([^h])/$1h$2/"},
			{From: "l", To: "n", Derive: "derive/^l/n/", Reverse: "derive/^n/l/"},
			{From: "f", To: "h", Derive: "derive/^f/h/", Reverse: "derive/^h/f/"},
			{From: "l", To: "r", Derive: "derive/^l/r/", Reverse: "derive/^r/l/"},
			{From: "g", To: "k", Derive: "derive/^g/k/", Reverse: "derive/^k/g/"},
		},
	},
	{
		Key:   "finals",
		Label: "韵母",
		Rules: []FuzzyRule{
			{From: "ang", To: "an", Derive: "derive/ang$/an/", Reverse: "derive/an$/ang/"},
			{From: "eng", To: "en", Derive: "derive/eng$/en/", Reverse: "derive/en$/eng/"},
			{From: "in", To: "ing", Derive: "derive/in$/ing/", Reverse: "derive/ing$/in/"},
			{From: "ian", To: "iang", Derive: "derive/ian$/iang/", Reverse: "derive/iang$/ian/"},
			{From: "uan", To: "uang", Derive: "derive/uan$/uang/", Reverse: "derive/uang$/uan/"},
			{From: "an", To: "ai", Derive: "derive/ai$/an/", Reverse: "derive/an$/ai/"},
			{From: "ong", To: "un", Derive: "derive/ong$/un/", Reverse: "derive/un$/ong/"},
			{From: "ong", To: "eng", Derive: "derive/ong$/eng/", Reverse: "derive/eng$/ong/"},
		},
	},
}

// EnabledDerivations returns the set of active derive rules in algebra.
func EnabledDerivations(algebra []string) map[string]bool {
	out := make(map[string]bool)
	for _, rule := range algebra {
		if strings.HasPrefix(rule, derivePrefix) {
			out[rule] = true
		}
	}
	return out
}

// FuzzyRuleEnabled reports whether both halves of rule are active.
func FuzzyRuleEnabled(algebra []string, rule FuzzyRule) bool {
	enabled := EnabledDerivations(algebra)
	return enabled[rule.Derive] && enabled[rule.Reverse]
}

// HasFuzzyPinyin reports whether algebra carries commented-out derive rules,
// the marker schemas use to advertise optional fuzzy spellings.
func HasFuzzyPinyin(algebra []string) bool {
	for _, rule := range algebra {
		if strings.HasPrefix(rule, commentedDerivePrefix) {
			return true
		}
	}
	return false
}

// ToggleFuzzyRule returns a new algebra with rule switched on or off.
// Enabling inserts the missing halves before the first rule that is neither a
// derivation nor a commented derivation, or at the front when there is none.
// Disabling removes both halves wherever they occur. algebra is not
// modified.
func ToggleFuzzyRule(algebra []string, rule FuzzyRule, enabled bool) []string {
	out := append([]string(nil), algebra...)
	if !enabled {
		kept := out[:0]
		for _, item := range out {
			if item != rule.Derive && item != rule.Reverse {
				kept = append(kept, item)
			}
		}
		return kept
	}

	idx := 0
	for i, item := range out {
		if !strings.HasPrefix(item, derivePrefix) && !strings.HasPrefix(item, commentedDerivePrefix) {
			idx = i
			break
		}
	}
	if !Contains(out, rule.Derive) {
		out = insertAt(out, idx, rule.Derive)
	}
	if !Contains(out, rule.Reverse) {
		out = insertAt(out, idx+1, rule.Reverse)
	}
	return out
}

func insertAt(list []string, idx int, value string) []string {
	if idx > len(list) {
		idx = len(list)
	}
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = value
	return list
}
