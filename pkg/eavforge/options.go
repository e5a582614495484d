package eavforge

import (
	"context"

	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/external"
	"github.com/hlop3z/eavforge/internal/naming"
	"github.com/hlop3z/eavforge/internal/source"
)

// Defaults applied by New.
const (
	DefaultOutput         = "./prisma/schema.prisma"
	DefaultProvider       = "postgresql"
	DefaultDatabaseURL    = `env("DATABASE_URL")`
	DefaultClientProvider = "prisma-client-js"
)

// Config holds all configuration options for the Generator.
type Config struct {
	// Reader serves stored rows, e.g. a source.SQLReader (input a).
	Reader source.Reader

	// Direct holds in-memory definitions (input b).
	Direct *source.Direct

	// Loader fetches definitions on demand, e.g. a JS load() hook (input c).
	Loader source.Reader

	// Mapper reshapes every decoded row before validation. Optional.
	Mapper source.Mapper

	// External lists pre-existing schema files merged ahead of generated tables.
	External []external.Source

	// ExternalLoader parses one external schema file.
	// Default: external.ParseFile
	ExternalLoader external.LoadFunc

	// Naming controls table and column names.
	Naming naming.Resolver

	// I18n is the global translation switch. Models can only opt out.
	I18n bool

	// Locales is informational; it is reported but does not change output.
	Locales []string

	// ABTesting adds variant columns to component tables whose embedding
	// does not configure A/B testing itself.
	ABTesting bool

	// Datasource is the schema's datasource block.
	Datasource ast.Datasource

	// Client is always emitted as the first generator.
	Client ast.Generator

	// Generators follow the client generator in declared order.
	Generators []ast.Generator

	// Output is the path Write persists to.
	// Default: ./prisma/schema.prisma
	Output string

	// Logger is used for stage and table logging.
	// If nil, no logging is performed.
	Logger Logger
}

// Logger is the interface for logging operations.
// It's compatible with the standard library's log.Logger.
type Logger interface {
	// Printf writes a formatted message to the log.
	Printf(format string, v ...any)
}

// Option is a functional option for configuring the Generator.
type Option func(*Config)

// WithReader reads stored definition rows from r.
func WithReader(r source.Reader) Option {
	return func(c *Config) {
		c.Reader = r
	}
}

// WithDefinitions uses in-memory model and component objects.
func WithDefinitions(models, components []map[string]any) Option {
	return func(c *Config) {
		c.Direct = &source.Direct{Models: models, Components: components}
	}
}

// WithLoader fetches definitions with r, typically a hook script.
func WithLoader(r source.Reader) Option {
	return func(c *Config) {
		c.Loader = r
	}
}

// WithLoaderFunc fetches definitions with fn.
func WithLoaderFunc(fn func(ctx context.Context) (*source.Raw, error)) Option {
	return WithLoader(source.LoadFunc(fn))
}

// WithMapper reshapes rows before validation.
func WithMapper(m source.Mapper) Option {
	return func(c *Config) {
		c.Mapper = m
	}
}

// WithExternal merges external schema files ahead of generated tables.
func WithExternal(sources ...external.Source) Option {
	return func(c *Config) {
		c.External = append(c.External, sources...)
	}
}

// WithExternalLoader replaces the external schema file parser.
func WithExternalLoader(load external.LoadFunc) Option {
	return func(c *Config) {
		c.ExternalLoader = load
	}
}

// WithNaming sets naming conventions. Unset fields keep their defaults.
func WithNaming(r naming.Resolver) Option {
	return func(c *Config) {
		c.Naming = r.WithDefaults()
	}
}

// WithI18n enables or disables translation tables globally.
func WithI18n(enabled bool, locales ...string) Option {
	return func(c *Config) {
		c.I18n = enabled
		c.Locales = locales
	}
}

// WithABTesting sets the A/B testing default for component embeddings.
func WithABTesting(enabled bool) Option {
	return func(c *Config) {
		c.ABTesting = enabled
	}
}

// WithDatasource sets the datasource block. Empty fields keep their defaults.
func WithDatasource(d ast.Datasource) Option {
	return func(c *Config) {
		if d.Provider != "" {
			c.Datasource.Provider = d.Provider
		}
		if d.URL != "" {
			c.Datasource.URL = d.URL
		}
		c.Datasource.DirectURL = d.DirectURL
	}
}

// WithClient sets the client generator. Empty fields keep their defaults.
func WithClient(g ast.Generator) Option {
	return func(c *Config) {
		if g.Name != "" {
			c.Client.Name = g.Name
		}
		if g.Provider != "" {
			c.Client.Provider = g.Provider
		}
		c.Client.Output = g.Output
		c.Client.Config = g.Config
	}
}

// WithGenerators appends generators after the client generator.
func WithGenerators(gens ...ast.Generator) Option {
	return func(c *Config) {
		c.Generators = append(c.Generators, gens...)
	}
}

// WithOutput sets the path Write persists to.
func WithOutput(path string) Option {
	return func(c *Config) {
		c.Output = path
	}
}

// WithLogger sets the logger for the generator.
// If not set, no logging is performed.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() *Config {
	return &Config{
		ExternalLoader: external.ParseFile,
		Naming:         naming.DefaultResolver(),
		Datasource: ast.Datasource{
			Provider: DefaultProvider,
			URL:      DefaultDatabaseURL,
		},
		Client: ast.Generator{
			Name:     "client",
			Provider: DefaultClientProvider,
		},
		Output: DefaultOutput,
	}
}
