package color

import (
	"github.com/goliatone/go-rimepatch/tree"
)

// Scheme is a preset color scheme converted for display.
type Scheme struct {
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	Author                    string `json:"author,omitempty"`
	BackColor                 string `json:"back_color"`
	TextColor                 string `json:"text_color"`
	CandidateTextColor        string `json:"candidate_text_color"`
	HilitedCandidateTextColor string `json:"hilited_candidate_text_color"`
	HilitedCandidateBackColor string `json:"hilited_candidate_back_color"`
	CommentTextColor          string `json:"comment_text_color"`
	LabelColor                string `json:"label_color"`
	BorderColor               string `json:"border_color,omitempty"`

	CandidateListLayout string `json:"candidate_list_layout,omitempty"`
	InlinePreedit       *bool  `json:"inline_preedit,omitempty"`
	CornerRadius        *int64 `json:"corner_radius,omitempty"`
	BorderWidth         *int64 `json:"border_width,omitempty"`
	BorderHeight        *int64 `json:"border_height,omitempty"`
	FontFace            string `json:"font_face,omitempty"`
	FontPoint           *int64 `json:"font_point,omitempty"`
}

// ParseSchemes decodes a preset_color_schemes mapping, keeping the mapping's
// order. Missing colors fall back to black background, white text and grey
// comments; candidate and label text fall back to the text color. Entries
// that are not mappings are skipped.
func ParseSchemes(presets tree.Value) []Scheme {
	m, ok := presets.(*tree.Mapping)
	if !ok {
		return nil
	}
	schemes := make([]Scheme, 0, m.Len())
	m.Range(func(id string, v tree.Value) bool {
		entry, ok := v.(*tree.Mapping)
		if !ok {
			return true
		}
		schemes = append(schemes, parseScheme(id, entry))
		return true
	})
	return schemes
}

func parseScheme(id string, entry *tree.Mapping) Scheme {
	text := lookupColor(entry, "text_color", "0xFFFFFF")
	s := Scheme{
		ID:                        id,
		Name:                      stringField(entry, "name"),
		Author:                    stringField(entry, "author"),
		BackColor:                 displayOr(lookupColor(entry, "back_color", "0x000000")),
		TextColor:                 displayOr(text),
		CandidateTextColor:        displayOr(lookupColor(entry, "candidate_text_color", text)),
		HilitedCandidateTextColor: displayOr(lookupColor(entry, "hilited_candidate_text_color", "0xFFFFFF")),
		HilitedCandidateBackColor: displayOr(lookupColor(entry, "hilited_candidate_back_color", "0x000000")),
		CommentTextColor:          displayOr(lookupColor(entry, "comment_text_color", "0x808080")),
		LabelColor:                displayOr(lookupColor(entry, "label_color", text)),
		CandidateListLayout:       stringField(entry, "candidate_list_layout"),
		FontFace:                  stringField(entry, "font_face"),
		InlinePreedit:             boolField(entry, "inline_preedit"),
		CornerRadius:              intField(entry, "corner_radius"),
		BorderWidth:               intField(entry, "border_width"),
		BorderHeight:              intField(entry, "border_height"),
		FontPoint:                 intField(entry, "font_point"),
	}
	if s.Name == "" {
		s.Name = id
	}
	if border, ok := entry.Get("border_color"); ok {
		if display, err := ToDisplay(literalOf(border)); err == nil {
			s.BorderColor = display
		}
	}
	return s
}

// lookupColor returns the raw literal under key, or fallback when the key is
// missing or empty.
func lookupColor(entry *tree.Mapping, key string, fallback any) any {
	v, ok := entry.Get(key)
	if !ok {
		return fallback
	}
	literal := literalOf(v)
	if literal == nil || literal == "" || literal == int64(0) {
		return fallback
	}
	return literal
}

func literalOf(v tree.Value) any {
	s, ok := v.(tree.Scalar)
	if !ok {
		return nil
	}
	return s.Interface()
}

func displayOr(literal any) string {
	display, err := ToDisplay(literal)
	if err != nil {
		return "#000000"
	}
	return display
}

func stringField(entry *tree.Mapping, key string) string {
	v, ok := entry.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(tree.Scalar); ok {
		if text, ok := s.AsString(); ok {
			return text
		}
	}
	return ""
}

func boolField(entry *tree.Mapping, key string) *bool {
	v, ok := entry.Get(key)
	if !ok {
		return nil
	}
	if s, ok := v.(tree.Scalar); ok {
		if b, ok := s.AsBool(); ok {
			return &b
		}
	}
	return nil
}

func intField(entry *tree.Mapping, key string) *int64 {
	v, ok := entry.Get(key)
	if !ok {
		return nil
	}
	if s, ok := v.(tree.Scalar); ok {
		if i, ok := s.AsInt(); ok {
			return &i
		}
	}
	return nil
}
