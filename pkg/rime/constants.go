// Package rime holds the vocabulary of Rime configuration files and small
// editing helpers that operate on their trees.
package rime

// Document names with a plain <name>.yaml base file. Every other document is
// a schema stored as <name>.schema.yaml.
const (
	DefaultDocument  = "default"
	SquirrelDocument = "squirrel"
	WeaselDocument   = "weasel"
)

// Well known paths inside documents.
const (
	SchemaListPath    = "schema_list"
	PageSizePath      = "menu/page_size"
	HotkeysPath       = "switcher/hotkeys"
	SwitchKeyPath     = "ascii_composer/switch_key"
	GoodOldCapsPath   = "ascii_composer/good_old_caps_lock"
	AppOptionsPath    = "app_options"
	StylePath         = "style"
	ColorSchemesPath  = "preset_color_schemes"
	SwitchesPath      = "switches"
	AlgebraPath       = "speller/algebra"
	SchemaSectionPath = "schema"
)

// SwitchKeyOptions are the actions ascii_composer accepts for a switch key.
var SwitchKeyOptions = []string{
	"commit_code",
	"commit_text",
	"inline_ascii",
	"clear",
	"noop",
	"set_ascii_mode",
	"unset_ascii_mode",
}

// CapsLockOptions is the subset allowed for Caps_Lock.
var CapsLockOptions = []string{"commit_code", "commit_text", "clear"}

// SwitcherHotkeys are the hotkeys offered for the schema switcher.
var SwitcherHotkeys = []string{
	"F4",
	"Control+grave",
	"Control+Shift+grave",
	"Alt+grave",
}

// Label pairs a configuration key with its display name.
type Label struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// SwitchKeyNames lists the modifier keys ascii_composer can bind.
var SwitchKeyNames = []Label{
	{Key: "Caps_Lock", Label: "大写锁定"},
	{Key: "Shift_L", Label: "左 Shift"},
	{Key: "Shift_R", Label: "右 Shift"},
	{Key: "Control_L", Label: "左 Control"},
	{Key: "Control_R", Label: "右 Control"},
}

// SchemaSwitchNames maps common schema switches to display names.
var SchemaSwitchNames = map[string]string{
	"ascii_mode":         "中英切换",
	"ascii_punct":        "中英标点",
	"traditionalization": "简繁切换",
	"emoji":              "Emoji",
	"full_shape":         "全角/半角",
	"search_single_char": "单字优先",
}

// CandidateListLayouts are the accepted style/candidate_list_layout values.
var CandidateListLayouts = []string{"stacked", "linear"}

// TextOrientations are the accepted style/text_orientation values.
var TextOrientations = []string{"horizontal", "vertical"}

// BaseFileName returns the base file backing a document.
func BaseFileName(name string) string {
	switch name {
	case DefaultDocument, SquirrelDocument, WeaselDocument:
		return name + ".yaml"
	default:
		return name + ".schema.yaml"
	}
}

// CustomFileName returns the patch file for a document.
func CustomFileName(name string) string {
	return name + ".custom.yaml"
}

// Contains reports whether options holds value.
func Contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
