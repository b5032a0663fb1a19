// Package config loads the lingo YAML configuration. The embedded default
// file is the single source of defaults; a user file is layered on top.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/lingo/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DefaultYAML returns a copy of the embedded default configuration.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded default configuration.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, errors.New("embedded default config is empty")
	}
	if err := decodeStrict(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Path returns flagValue, or the path named by the LINGO_CONFIG environment
// variable when the flag is empty.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(settings.ConfigEnvVar)
}

// Load returns the defaults merged with the file at path. An empty path
// loads the defaults only. The result is validated.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Merge(cfg, data); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Merge decodes data on top of base. Fields absent from data keep their base
// values; a partial theme is completed from the base theme of the same name,
// or from the dark theme for new names.
func Merge(base Config, data []byte) (Config, error) {
	cfg := base
	cfg.UI.Themes = make(map[string]ThemeConfig, len(base.UI.Themes))
	for name, th := range base.UI.Themes {
		cfg.UI.Themes[name] = th
	}

	if err := decodeStrict(data, &cfg); err != nil {
		return base, err
	}

	fallback := base.UI.Themes["dark"]
	for name, th := range cfg.UI.Themes {
		seed, ok := base.UI.Themes[name]
		if !ok {
			seed = fallback
		}
		cfg.UI.Themes[name] = mergeTheme(seed, th)
	}
	return cfg, nil
}

func decodeStrict(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func mergeTheme(base, override ThemeConfig) ThemeConfig {
	out := base
	apply := func(src ColorValue, dst *ColorValue) {
		if src != "" {
			*dst = src
		}
	}
	apply(override.Label, &out.Label)
	apply(override.Match, &out.Match)
	apply(override.SelectedFG, &out.SelectedFG)
	apply(override.SelectedBG, &out.SelectedBG)
	apply(override.Muted, &out.Muted)
	apply(override.Warning, &out.Warning)
	apply(override.Border, &out.Border)
	return out
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Filter.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("filter.debounce_ms must be non-negative, got %d", c.Filter.DebounceMs))
	}
	if c.Filter.RenderCap <= 0 {
		errs = append(errs, fmt.Errorf("filter.render_cap must be positive, got %d", c.Filter.RenderCap))
	}
	if strings.TrimSpace(c.Thesaurus.Language) == "" {
		errs = append(errs, errors.New("thesaurus.language is required"))
	}
	if strings.TrimSpace(c.Thesaurus.SystemLanguage) == "" {
		errs = append(errs, errors.New("thesaurus.system_language is required"))
	}
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must be non-negative, got %d", c.Watch.DebounceMs))
	}
	if c.UI.Indent < 1 || c.UI.Indent > 8 {
		errs = append(errs, fmt.Errorf("ui.indent must be between 1 and 8, got %d", c.UI.Indent))
	}
	if _, ok := c.UI.Themes[c.UI.Theme]; !ok {
		errs = append(errs, fmt.Errorf("ui.theme %q is not defined (available: %s)", c.UI.Theme, strings.Join(c.ThemeNames(), ", ")))
	}
	for _, name := range c.ThemeNames() {
		errs = append(errs, c.UI.Themes[name].validate(name)...)
	}
	return errors.Join(errs...)
}

// ThemeNames lists the configured themes in sorted order.
func (c Config) ThemeNames() []string {
	names := make([]string, 0, len(c.UI.Themes))
	for name := range c.UI.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveTheme returns the colors of the selected theme.
func (c Config) ActiveTheme() ThemeConfig {
	return c.UI.Themes[c.UI.Theme]
}

func (t ThemeConfig) validate(name string) []error {
	var errs []error
	check := func(field string, v ColorValue) {
		if !v.Valid() {
			errs = append(errs, fmt.Errorf("ui.themes.%s.%s: invalid color %q", name, field, v))
		}
	}
	check("label", t.Label)
	check("match", t.Match)
	check("selected_fg", t.SelectedFG)
	check("selected_bg", t.SelectedBG)
	check("muted", t.Muted)
	check("warning", t.Warning)
	check("border", t.Border)
	return errs
}

// Valid reports whether c is a hex color or an ANSI color number.
func (c ColorValue) Valid() bool {
	s := strings.TrimSpace(string(c))
	if hexColorPattern.MatchString(s) {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 255
}
