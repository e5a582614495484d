package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/external"
	"github.com/hlop3z/eavforge/internal/naming"
	"github.com/hlop3z/eavforge/internal/runtime"
	"github.com/hlop3z/eavforge/internal/source"
	"github.com/hlop3z/eavforge/pkg/eavforge"
)

// Config file names looked up in the working directory when --config is not set.
var configCandidates = []string{"eavforge.yaml", "eavforge.yml", "eavforge.toml"}

// Environment overrides, applied over the file and under CLI flags.
const (
	envSourceURL = "EAVFORGE_SOURCE_URL"
	envOutput    = "EAVFORGE_OUTPUT"
)

// DefaultModelsTable is read when source.modelsTable is not set.
const DefaultModelsTable = "models"

// FileConfig is the eavforge.yaml / eavforge.toml document.
type FileConfig struct {
	Output         string            `yaml:"output" toml:"output"`
	Datasource     DatasourceConfig  `yaml:"datasource" toml:"datasource"`
	Client         GeneratorConfig   `yaml:"client" toml:"client"`
	Generators     []GeneratorConfig `yaml:"generators" toml:"generators"`
	Naming         NamingConfig      `yaml:"naming" toml:"naming"`
	I18n           I18nConfig        `yaml:"i18n" toml:"i18n"`
	ABTesting      ABTestingConfig   `yaml:"abTesting" toml:"abTesting"`
	Source         *SourceConfig     `yaml:"source" toml:"source"`
	Models         []map[string]any  `yaml:"models" toml:"models"`
	Components     []map[string]any  `yaml:"components" toml:"components"`
	Hooks          *HooksConfig      `yaml:"hooks" toml:"hooks"`
	ExternalModels any               `yaml:"externalModels" toml:"externalModels"`

	// Path is the file the config was read from, "" for defaults only.
	Path string `yaml:"-" toml:"-"`
}

// DatasourceConfig is the datasource block of the output schema.
type DatasourceConfig struct {
	Provider  string `yaml:"provider" toml:"provider"`
	URL       string `yaml:"url" toml:"url"`
	DirectURL string `yaml:"directUrl" toml:"directUrl"`
}

// GeneratorConfig is one generator block of the output schema.
type GeneratorConfig struct {
	Name     string         `yaml:"name" toml:"name"`
	Provider string         `yaml:"provider" toml:"provider"`
	Output   string         `yaml:"output" toml:"output"`
	Config   map[string]any `yaml:"config" toml:"config"`
}

// NamingConfig selects the naming conventions.
type NamingConfig struct {
	Tables             string `yaml:"tables" toml:"tables"`
	Columns            string `yaml:"columns" toml:"columns"`
	Prefix             string `yaml:"prefix" toml:"prefix"`
	TranslationPattern string `yaml:"translationPattern" toml:"translationPattern"`
}

// I18nConfig is the global translation switch.
type I18nConfig struct {
	Enabled bool     `yaml:"enabled" toml:"enabled"`
	Locales []string `yaml:"locales" toml:"locales"`
}

// ABTestingConfig is the global A/B testing default for components.
type ABTestingConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// SourceConfig reads definitions from database tables.
type SourceConfig struct {
	Driver          string `yaml:"driver" toml:"driver"`
	URL             string `yaml:"url" toml:"url"`
	ModelsTable     string `yaml:"modelsTable" toml:"modelsTable"`
	ComponentsTable string `yaml:"componentsTable" toml:"componentsTable"`
}

// HooksConfig points at a JS hook script.
type HooksConfig struct {
	Script  string `yaml:"script" toml:"script"`
	Timeout string `yaml:"timeout" toml:"timeout"` // Go duration, e.g. "5s"
}

// loadConfig reads the config file, expands ${VAR} references and applies
// environment overrides.
// Precedence: CLI flags > env vars > config file > defaults. Flags are
// applied by the caller.
func loadConfig(path string) (*FileConfig, error) {
	if path == "" {
		path = findConfig()
	}

	cfg := &FileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, alerr.Wrap(alerr.ErrConfigRead, err, "failed to read config file").
				WithFile(path, 0)
		}
		if err := decodeConfig(path, data, cfg); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	cfg.expandEnv()
	if url := os.Getenv(envSourceURL); url != "" {
		if cfg.Source == nil {
			cfg.Source = &SourceConfig{}
		}
		cfg.Source.URL = url
	}
	if out := os.Getenv(envOutput); out != "" {
		cfg.Output = out
	}
	return cfg, nil
}

func findConfig() string {
	for _, name := range configCandidates {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// decodeConfig picks the format by extension. Unknown keys are rejected in
// both formats.
func decodeConfig(path string, data []byte, cfg *FileConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return alerr.Wrap(alerr.ErrConfigInvalid, err, "failed to parse config file").
				WithFile(path, 0)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return alerr.New(alerr.ErrConfigInvalid, "unknown config keys: "+strings.Join(keys, ", ")).
				WithFile(path, 0)
		}
	case ".yaml", ".yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return alerr.Wrap(alerr.ErrConfigInvalid, err, "failed to parse config file").
				WithFile(path, 0)
		}
	default:
		return alerr.New(alerr.ErrConfigInvalid, "unsupported config format "+filepath.Ext(path)).
			WithFile(path, 0).
			WithHelp("use a .yaml, .yml or .toml file")
	}
	return nil
}

// expandEnv expands ${VAR} patterns in URLs and paths.
func (c *FileConfig) expandEnv() {
	for _, s := range []*string{&c.Output, &c.Datasource.URL, &c.Datasource.DirectURL} {
		*s = expandEnvVars(*s)
	}
	if c.Source != nil {
		c.Source.URL = expandEnvVars(c.Source.URL)
	}
	if c.Hooks != nil {
		c.Hooks.Script = expandEnvVars(c.Hooks.Script)
	}
}

// expandEnvVars expands ${VAR} patterns in a string. The env("VAR") form
// of datasource URLs is left alone for the schema consumer to resolve.
func expandEnvVars(s string) string {
	if ast.IsEnvReference(s) {
		return s
	}
	return os.Expand(s, os.Getenv)
}

// resolve makes a config-relative path absolute against the config file's
// directory. Paths from defaults or flags stay relative to the working dir.
func (c *FileConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// -----------------------------------------------------------------------------
// Generator options
// -----------------------------------------------------------------------------

// setup is everything a command needs to run the generator.
type setup struct {
	opts    []eavforge.Option
	watched []string // Files whose change should trigger regeneration
	closers []func() error
}

func (s *setup) Close() {
	for _, c := range s.closers {
		c()
	}
}

// options translates the file config into generator options.
func (c *FileConfig) options(logger eavforge.Logger) (*setup, error) {
	s := &setup{}
	if c.Path != "" {
		s.watched = append(s.watched, c.Path)
	}
	fail := func(err error) (*setup, error) {
		s.Close()
		return nil, err
	}

	if c.Source != nil {
		reader, err := c.openSource()
		if err != nil {
			return fail(err)
		}
		s.closers = append(s.closers, reader.Close)
		s.opts = append(s.opts, eavforge.WithReader(reader))
	}
	if len(c.Models) > 0 || len(c.Components) > 0 {
		s.opts = append(s.opts, eavforge.WithDefinitions(c.Models, c.Components))
	}
	if c.Hooks != nil {
		hooks, script, err := c.loadHooks(logger)
		if err != nil {
			return fail(err)
		}
		s.watched = append(s.watched, script)
		if hooks.HasLoader() {
			s.opts = append(s.opts, eavforge.WithLoader(hooks))
		}
		if hooks.HasMapper() {
			s.opts = append(s.opts, eavforge.WithMapper(hooks))
		}
	}

	if c.ExternalModels != nil {
		sources, err := external.ParseSources(c.ExternalModels)
		if err != nil {
			return fail(alerr.Wrap(alerr.ErrConfigInvalid, err, "invalid externalModels"))
		}
		for i := range sources {
			sources[i].Path = c.resolve(expandEnvVars(sources[i].Path))
			s.watched = append(s.watched, sources[i].Path)
		}
		s.opts = append(s.opts, eavforge.WithExternal(sources...))
	}

	resolver, err := c.Naming.resolver()
	if err != nil {
		return fail(err)
	}
	s.opts = append(s.opts,
		eavforge.WithNaming(resolver),
		eavforge.WithI18n(c.I18n.Enabled, c.I18n.Locales...),
		eavforge.WithABTesting(c.ABTesting.Enabled),
		eavforge.WithDatasource(ast.Datasource{
			Provider:  c.Datasource.Provider,
			URL:       c.Datasource.URL,
			DirectURL: c.Datasource.DirectURL,
		}),
		eavforge.WithClient(c.Client.generator("client")),
	)

	gens := make([]ast.Generator, 0, len(c.Generators))
	for i, g := range c.Generators {
		if g.Name == "" || g.Provider == "" {
			return fail(alerr.Newf(alerr.ErrConfigInvalid, "generators[%d] requires name and provider", i))
		}
		gens = append(gens, g.generator(g.Name))
	}
	if len(gens) > 0 {
		s.opts = append(s.opts, eavforge.WithGenerators(gens...))
	}

	if c.Output != "" {
		s.opts = append(s.opts, eavforge.WithOutput(c.resolve(c.Output)))
	}
	if logger != nil {
		s.opts = append(s.opts, eavforge.WithLogger(logger))
	}
	return s, nil
}

func (c *FileConfig) openSource() (*source.SQLReader, error) {
	src := c.Source
	if src.URL == "" {
		return nil, alerr.New(alerr.ErrConfigInvalid, "source.url is required").
			WithHelp("set source.url or " + envSourceURL)
	}
	if src.Driver != "" {
		want, ok := driverNames[strings.ToLower(src.Driver)]
		if !ok {
			return nil, alerr.Newf(alerr.ErrConfigInvalid, "unknown source.driver %q", src.Driver).
				WithHelp("use postgres, mysql or sqlite")
		}
		if got := source.DetectDialect(src.URL).String(); got != want {
			return nil, alerr.Newf(alerr.ErrConfigInvalid, "source.driver %q does not match the %s url", src.Driver, got).
				With("url", source.RedactURL(src.URL))
		}
	}

	table := src.ModelsTable
	if table == "" {
		table = DefaultModelsTable
	}
	return source.Open(src.URL, table, src.ComponentsTable)
}

var driverNames = map[string]string{
	"postgres":   "postgres",
	"postgresql": "postgres",
	"pq":         "postgres",
	"mysql":      "mysql",
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
}

func (c *FileConfig) loadHooks(logger eavforge.Logger) (*runtime.Hooks, string, error) {
	script := c.resolve(c.Hooks.Script)
	if script == "" {
		return nil, "", alerr.New(alerr.ErrConfigInvalid, "hooks.script is required")
	}

	var timeout time.Duration
	if c.Hooks.Timeout != "" {
		d, err := time.ParseDuration(c.Hooks.Timeout)
		if err != nil {
			return nil, "", alerr.Wrap(alerr.ErrConfigInvalid, err, "invalid hooks.timeout").
				WithHelp(`use a duration such as "5s" or "500ms"`)
		}
		timeout = d
	}

	var jsLogger runtime.Logger
	if logger != nil {
		jsLogger = logger
	}
	hooks, err := runtime.LoadHooks(script, timeout, jsLogger)
	if err != nil {
		return nil, "", err
	}
	return hooks, script, nil
}

func (n NamingConfig) resolver() (naming.Resolver, error) {
	r := naming.Resolver{Prefix: n.Prefix, TranslationPattern: n.TranslationPattern}
	for _, f := range []struct {
		key string
		val string
		dst *naming.Convention
	}{
		{"naming.tables", n.Tables, &r.Tables},
		{"naming.columns", n.Columns, &r.Columns},
	} {
		if f.val == "" {
			continue
		}
		conv, err := naming.ParseConvention(f.val)
		if err != nil {
			return r, alerr.Wrap(alerr.ErrConfigInvalid, err, "invalid "+f.key)
		}
		*f.dst = conv
	}
	if r.TranslationPattern != "" && !strings.Contains(r.TranslationPattern, naming.IdentifierPlaceholder) {
		return r, alerr.New(alerr.ErrConfigInvalid, "naming.translationPattern must contain "+naming.IdentifierPlaceholder)
	}
	return r, nil
}

func (g GeneratorConfig) generator(name string) ast.Generator {
	return ast.Generator{Name: name, Provider: g.Provider, Output: g.Output, Config: g.Config}
}
