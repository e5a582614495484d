// Package main provides the eavforge CLI, which compiles EAV model and
// component definitions into a Prisma schema.
//
// Usage:
//
//	eavforge init                 # Write a starter eavforge.yaml
//	eavforge validate             # Read and validate definitions only
//	eavforge generate             # Write the schema to the configured output
//	eavforge generate --check     # Exit 1 when the schema on disk is stale
//	eavforge generate --watch     # Regenerate when inputs change
//	eavforge analyze              # Show tables, warnings and fingerprints
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hlop3z/eavforge/internal/cli"
	"github.com/hlop3z/eavforge/pkg/eavforge"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// errCheckFailed signals a stale schema; the details are already printed.
var errCheckFailed = errors.New("schema is out of date")

// app carries the flags shared by every command.
type app struct {
	configPath string
	output     string
	sourceURL  string
	verbose    bool
	jsonOutput bool

	stdout io.Writer
	stderr io.Writer
}

// addConfigFlags registers the flags that locate and override configuration.
func (a *app) addConfigFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.configPath, "config", "c", "", "Path to config file (default: eavforge.yaml, eavforge.yml or eavforge.toml)")
	fs.BoolVar(&a.verbose, "verbose", false, "Log every pipeline stage to stderr")
}

// addOverrideFlags registers flags that take precedence over config and env.
func (a *app) addOverrideFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.output, "output", "o", "", "Output schema path (overrides config and "+envOutput+")")
	fs.StringVar(&a.sourceURL, "source-url", "", "Definition database URL (overrides config and "+envSourceURL+")")
}

func (a *app) addJSONFlag(fs *pflag.FlagSet) {
	fs.BoolVar(&a.jsonOutput, "json", false, "Write machine-readable JSON to stdout")
}

// printer returns a printer honoring --json and the terminal.
func (a *app) printer() *cli.Printer {
	cfg := cli.DefaultConfig()
	cfg.Writer = a.stdout
	cfg.Err = a.stderr
	if a.jsonOutput {
		cfg.Mode = cli.ModeJSON
	}
	return cli.NewPrinter(cfg)
}

func (a *app) logger() eavforge.Logger {
	if !a.verbose {
		return nil
	}
	return log.New(a.stderr, "eavforge: ", 0)
}

// configFile returns the config path in use, or "" when there is none.
func (a *app) configFile() string {
	if a.configPath != "" {
		return a.configPath
	}
	return findConfig()
}

// config loads the config file and applies flag overrides.
func (a *app) config() (*FileConfig, error) {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.sourceURL != "" {
		if cfg.Source == nil {
			cfg.Source = &SourceConfig{}
		}
		cfg.Source.URL = a.sourceURL
	}
	return cfg, nil
}

// generator builds a generator from config and flags. The caller must Close
// the returned setup.
func (a *app) generator() (*eavforge.Generator, *setup, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	s, err := cfg.options(a.logger())
	if err != nil {
		return nil, nil, err
	}
	if a.output != "" {
		s.opts = append(s.opts, eavforge.WithOutput(a.output))
	}
	gen, err := eavforge.New(s.opts...)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return gen, s, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "eavforge",
		Short:         "Compile EAV model definitions into a Prisma schema",
		Long:          `eavforge reads model and component definitions from a database, a config file or a JS hook script and compiles them into a Prisma schema with translation, component and junction tables.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	a.addConfigFlags(root.PersistentFlags())

	root.AddCommand(
		initCmd(a),
		validateCmd(a),
		generateCmd(a),
		analyzeCmd(a),
	)
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCheckFailed) {
			a.printer().Error(err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
