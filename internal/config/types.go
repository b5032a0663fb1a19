package config

// Config is the full lingo configuration.
type Config struct {
	Filter    FilterConfig    `yaml:"filter" yamlcomment:"Tree filter tuning"`
	Thesaurus ThesaurusConfig `yaml:"thesaurus" yamlcomment:"Label language selection"`
	Watch     WatchConfig     `yaml:"watch" yamlcomment:"Reload the input file when it changes"`
	UI        UIConfig        `yaml:"ui" yamlcomment:"Interactive browser"`
	Log       LogConfig       `yaml:"log" yamlcomment:"Logging"`
}

type FilterConfig struct {
	DebounceMs     int    `yaml:"debounce_ms" yamlcomment:"Delay before typed filter text is applied (milliseconds)"`
	RenderCap      int    `yaml:"render_cap" yamlcomment:"Give up filtering once more nodes than this match"`
	SearchableText string `yaml:"searchable_text" yamlcomment:"CEL expression over 'node' producing the text to match; empty uses the label"`
	MatchAllLabels bool   `yaml:"match_all_labels" yamlcomment:"Match alternate and hidden labels too"`
}

type ThesaurusConfig struct {
	Language       string `yaml:"language" yamlcomment:"Preferred label language"`
	SystemLanguage string `yaml:"system_language" yamlcomment:"Fallback label language"`
}

type WatchConfig struct {
	Enabled    bool `yaml:"enabled" yamlcomment:"Watch the input file (interactive mode)"`
	DebounceMs int  `yaml:"debounce_ms" yamlcomment:"Quiet period before reloading (milliseconds)"`
}

type UIConfig struct {
	Theme  string                 `yaml:"theme" yamlcomment:"Active theme name"`
	Indent int                    `yaml:"indent" yamlcomment:"Spaces per tree level"`
	Themes map[string]ThemeConfig `yaml:"themes" yamlcomment:"Named color sets (hex #RRGGBB or ANSI 0-255)"`
}

// ColorValue is a hex color or an ANSI color number.
type ColorValue string

type ThemeConfig struct {
	Label      ColorValue `yaml:"label" yamlcomment:"Node label"`
	Match      ColorValue `yaml:"match" yamlcomment:"Matched filter text"`
	SelectedFG ColorValue `yaml:"selected_fg" yamlcomment:"Selected row foreground"`
	SelectedBG ColorValue `yaml:"selected_bg" yamlcomment:"Selected row background"`
	Muted      ColorValue `yaml:"muted" yamlcomment:"Keys, counts and hints"`
	Warning    ColorValue `yaml:"warning" yamlcomment:"Capped filter banner"`
	Border     ColorValue `yaml:"border" yamlcomment:"Filter input border"`
}

type LogConfig struct {
	File string `yaml:"file" yamlcomment:"Log file used while the interactive browser runs; empty disables logging"`
}
