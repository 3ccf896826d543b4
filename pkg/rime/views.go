package rime

import (
	"fmt"

	"github.com/goliatone/go-rimepatch/internal/hydrate"
	"github.com/goliatone/go-rimepatch/tree"
)

// SchemaRef is one schema_list entry.
type SchemaRef struct {
	Schema string `json:"schema"`
}

// DefaultConfig is the read-only view of default.yaml editors work with.
type DefaultConfig struct {
	SchemaList []SchemaRef `json:"schema_list"`
	Menu       struct {
		PageSize int `json:"page_size"`
	} `json:"menu"`
	Switcher struct {
		Hotkeys     []string `json:"hotkeys"`
		SaveOptions []string `json:"save_options"`
		FoldOptions bool     `json:"fold_options"`
	} `json:"switcher"`
	ASCIIComposer struct {
		GoodOldCapsLock bool              `json:"good_old_caps_lock"`
		SwitchKey       map[string]string `json:"switch_key"`
	} `json:"ascii_composer"`
}

// SquirrelStyle is the style section of squirrel.yaml.
type SquirrelStyle struct {
	ColorScheme         string  `json:"color_scheme"`
	ColorSchemeDark     string  `json:"color_scheme_dark"`
	CandidateListLayout string  `json:"candidate_list_layout"`
	TextOrientation     string  `json:"text_orientation"`
	InlinePreedit       bool    `json:"inline_preedit"`
	InlineCandidate     bool    `json:"inline_candidate"`
	MemorizeSize        bool    `json:"memorize_size"`
	Translucency        bool    `json:"translucency"`
	CornerRadius        float64 `json:"corner_radius"`
	HilitedCornerRadius float64 `json:"hilited_corner_radius"`
	BorderHeight        float64 `json:"border_height"`
	BorderWidth         float64 `json:"border_width"`
	LineSpacing         float64 `json:"line_spacing"`
	Spacing             float64 `json:"spacing"`
	ShadowSize          float64 `json:"shadow_size"`
	FontFace            string  `json:"font_face"`
	FontPoint           float64 `json:"font_point"`
	CandidateFormat     string  `json:"candidate_format"`
}

// SchemaSwitch is one entry of a schema's switches list.
type SchemaSwitch struct {
	Name   string   `json:"name"`
	States []string `json:"states,omitempty"`
	Reset  *int64   `json:"reset,omitempty"`
	Abbrev []string `json:"abbrev,omitempty"`
}

// SchemaMetadata summarises a *.schema.yaml document.
type SchemaMetadata struct {
	SchemaID       string         `json:"schemaId"`
	Name           string         `json:"name"`
	Version        string         `json:"version"`
	Author         []string       `json:"author"`
	Description    string         `json:"description"`
	Switches       []SchemaSwitch `json:"switches"`
	HasFuzzyPinyin bool           `json:"hasFuzzyPinyin"`
}

// InstallationInfo is the subset of installation.yaml shown in health
// reports.
type InstallationInfo struct {
	DistributionName    string `json:"distribution_name"`
	DistributionVersion string `json:"distribution_version"`
	RimeVersion         string `json:"rime_version"`
	InstallTime         string `json:"install_time"`
}

var (
	defaultConfigDecoder = hydrate.NewDecoder[DefaultConfig](
		hydrate.WithPreHook[DefaultConfig](dropNonMappingSections("menu", "switcher", "ascii_composer")),
		hydrate.WithPostHook[DefaultConfig](func(_ hydrate.Context, cfg *DefaultConfig) error {
			if cfg.ASCIIComposer.SwitchKey == nil {
				cfg.ASCIIComposer.SwitchKey = map[string]string{}
			}
			return nil
		}),
	)
	styleDecoder = hydrate.NewDecoder[SquirrelStyle](
		hydrate.WithPreHook[SquirrelStyle](keepScalarFields),
	)
	installationDecoder = hydrate.NewDecoder[InstallationInfo](
		hydrate.WithPreHook[InstallationInfo](keepScalarFields),
	)
)

// DecodeDefaultConfig decodes the effective default document.
func DecodeDefaultConfig(doc *tree.Mapping) (DefaultConfig, error) {
	return defaultConfigDecoder.Decode(hydrate.Context{Document: DefaultDocument}, doc)
}

// DecodeSquirrelStyle decodes the style section of the effective squirrel
// document. A missing section yields the zero style.
func DecodeSquirrelStyle(doc *tree.Mapping) (SquirrelStyle, error) {
	section, ok := tree.Get(doc, StylePath)
	if !ok {
		return SquirrelStyle{}, nil
	}
	return styleDecoder.Decode(hydrate.Context{Document: SquirrelDocument, Path: StylePath}, section)
}

// DecodeInstallation decodes installation.yaml.
func DecodeInstallation(doc *tree.Mapping) (InstallationInfo, error) {
	return installationDecoder.Decode(hydrate.Context{Document: "installation"}, doc)
}

// ParseSchemaMetadata summarises a schema document. It reports false when the
// document has no schema/schema_id.
func ParseSchemaMetadata(doc *tree.Mapping) (SchemaMetadata, bool) {
	section, ok := tree.Get(doc, SchemaSectionPath)
	if !ok {
		return SchemaMetadata{}, false
	}
	schema, ok := section.(*tree.Mapping)
	if !ok {
		return SchemaMetadata{}, false
	}
	id, ok := scalarString(schema, "schema_id")
	if !ok {
		return SchemaMetadata{}, false
	}

	meta := SchemaMetadata{SchemaID: id, Name: id}
	if name, ok := scalarString(schema, "name"); ok {
		meta.Name = name
	}
	if v, ok := schema.Get("version"); ok {
		if s, ok := v.(tree.Scalar); ok && !s.IsNull() {
			meta.Version = s.String()
		}
	}
	if v, ok := schema.Get("author"); ok {
		meta.Author = Strings(v)
	}
	if meta.Author == nil {
		meta.Author = []string{}
	}
	meta.Description, _ = scalarString(schema, "description")

	meta.Switches = []SchemaSwitch{}
	switches, _ := tree.Get(doc, SwitchesPath)
	seq, _ := switches.(tree.Sequence)
	for _, item := range seq {
		entry, ok := item.(*tree.Mapping)
		if !ok {
			continue
		}
		name, ok := scalarString(entry, "name")
		if !ok {
			continue
		}
		sw := SchemaSwitch{Name: name}
		if v, ok := entry.Get("states"); ok {
			sw.States = Strings(v)
		}
		if v, ok := entry.Get("abbrev"); ok {
			sw.Abbrev = Strings(v)
		}
		if v, ok := entry.Get("reset"); ok {
			if s, ok := v.(tree.Scalar); ok {
				if n, ok := s.AsInt(); ok {
					sw.Reset = &n
				}
			}
		}
		meta.Switches = append(meta.Switches, sw)
	}

	algebra, _ := tree.Get(doc, AlgebraPath)
	meta.HasFuzzyPinyin = HasFuzzyPinyin(Strings(algebra))
	return meta, true
}

// dropNonMappingSections removes sections that are present but malformed so
// one bad section does not fail the whole view.
func dropNonMappingSections(keys ...string) hydrate.PreHook {
	return func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
		for _, key := range keys {
			if v, ok := payload[key]; ok {
				if _, isMap := v.(map[string]any); !isMap {
					delete(payload, key)
				}
			}
		}
		if list, ok := payload[SchemaListPath].([]any); ok {
			kept := list[:0]
			for _, item := range list {
				if _, isMap := item.(map[string]any); isMap {
					kept = append(kept, item)
				}
			}
			payload[SchemaListPath] = kept
		} else {
			delete(payload, SchemaListPath)
		}
		return payload, nil
	}
}

// keepScalarFields drops nested values, since the flat views only carry
// scalars and a nested value would fail decoding.
func keepScalarFields(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	for key, v := range payload {
		switch v.(type) {
		case map[string]any, []any, nil:
			delete(payload, key)
		}
	}
	return payload, nil
}

// CheckChoice validates that value is one of options.
func CheckChoice(field, value string, options []string) error {
	if !Contains(options, value) {
		return fmt.Errorf("rime: %s must be one of %v, got %q", field, options, value)
	}
	return nil
}
