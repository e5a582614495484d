package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/cli"
	"github.com/hlop3z/eavforge/internal/fingerprint"
)

// generateCmd compiles definitions and writes the schema.
func generateCmd(a *app) *cobra.Command {
	var (
		watch bool
		check bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile definitions and write the schema",
		Example: `  eavforge generate
  eavforge generate -o ./prisma/schema.prisma
  eavforge generate --check    # exit 1 when the schema on disk is stale
  eavforge generate --watch    # regenerate when config, hooks or external models change`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && check {
				return alerr.New(alerr.ErrConfigInvalid, "--watch and --check cannot be combined")
			}
			if watch && a.jsonOutput {
				return alerr.New(alerr.ErrConfigInvalid, "--watch and --json cannot be combined")
			}

			ctx := cmd.Context()
			if check {
				return a.check(ctx)
			}
			if !watch {
				_, err := a.generate(ctx)
				return err
			}

			watched, err := a.generate(ctx)
			if err != nil {
				// Keep watching so the user can fix the input.
				a.printer().Error(err)
			}
			return a.watch(ctx, watched)
		},
	}

	a.addOverrideFlags(cmd.Flags())
	a.addJSONFlag(cmd.Flags())
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate when the config, hook script or external models change")
	cmd.Flags().BoolVar(&check, "check", false, "Compare the schema on disk with a fresh generation instead of writing")
	return cmd
}

// generateSummary is the JSON form of a successful generate.
type generateSummary struct {
	OK          bool     `json:"ok"`
	Output      string   `json:"output"`
	Models      []string `json:"models"`
	Tables      int      `json:"tables"`
	Warnings    []string `json:"warnings"`
	Fingerprint string   `json:"fingerprint"`
}

// generate writes the schema once and returns the files worth watching.
// When the config cannot be used, only the config file itself is returned.
func (a *app) generate(ctx context.Context) ([]string, error) {
	gen, s, err := a.generator()
	if err != nil {
		if path := a.configFile(); path != "" {
			return []string{path}, err
		}
		return nil, err
	}
	defer s.Close()

	res, err := gen.Write(ctx)
	if err != nil {
		return s.watched, err
	}

	p := a.printer()
	output := gen.Config().Output
	if a.jsonOutput {
		return s.watched, p.JSON(generateSummary{
			OK:          true,
			Output:      output,
			Models:      nonNil(res.Models),
			Tables:      len(res.Tables),
			Warnings:    nonNil(res.Warnings),
			Fingerprint: res.Fingerprint.Root,
		})
	}

	p.Warnings(res.Warnings)
	p.Print(cli.FormatSuccess(fmt.Sprintf("wrote %s (%s, %s)", output,
		cli.FormatCount(len(res.Models), "model", "models"),
		cli.FormatCount(len(res.Tables), "table", "tables"))))
	return s.watched, nil
}

// checkSummary is the JSON form of generate --check.
type checkSummary struct {
	OK        bool                `json:"ok"`
	Output    string              `json:"output"`
	Expected  string              `json:"expected"`
	Actual    string              `json:"actual,omitempty"`
	Missing   []string            `json:"missing,omitempty"`
	Extra     []string            `json:"extra,omitempty"`
	Changed   map[string][]string `json:"changed,omitempty"`
	Reordered bool                `json:"reordered,omitempty"`
}

// check compares the schema on disk with a fresh generation.
func (a *app) check(ctx context.Context) error {
	gen, s, err := a.generator()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	output := gen.Config().Output
	p := a.printer()

	data, err := os.ReadFile(output)
	if errors.Is(err, fs.ErrNotExist) {
		if a.jsonOutput {
			p.JSON(checkSummary{Output: output, Expected: res.Fingerprint.Root})
		} else {
			p.Print(cli.FormatWarning(fmt.Sprintf("%s does not exist", output)))
			p.Print(cli.FormatHelp("run `eavforge generate` to create it"))
		}
		return errCheckFailed
	}
	if err != nil {
		return alerr.Wrap(alerr.ErrConfigRead, err, "failed to read existing schema").WithFile(output, 0)
	}

	actual, err := fingerprint.Compute(string(data))
	if err != nil {
		return err
	}
	cmp := fingerprint.Compare(res.Fingerprint, actual)

	if a.jsonOutput {
		changed := map[string][]string{}
		for key, d := range cmp.Diffs {
			changed[key] = columnChanges(d)
		}
		p.JSON(checkSummary{
			OK:        cmp.Match,
			Output:    output,
			Expected:  cmp.ExpectedRoot,
			Actual:    cmp.ActualRoot,
			Missing:   cmp.Missing,
			Extra:     cmp.Extra,
			Changed:   changed,
			Reordered: cmp.Reordered,
		})
	} else if cmp.Match {
		p.Print(cli.FormatSuccess(fmt.Sprintf("%s is up to date", output)))
	} else {
		p.Print(cli.FormatWarning(fmt.Sprintf("%s is out of date", output)))
		if cmp.Reordered {
			p.Print("  blocks are out of order\n")
		}
		printBlocks(p, "missing from disk", "-", cmp.Missing)
		printBlocks(p, "not generated", "+", cmp.Extra)
		for _, key := range cmp.Changed() {
			items := columnChanges(cmp.Diffs[key])
			if len(items) == 0 {
				items = []string{"~ block attributes"}
			}
			printBlocks(p, key+" differs", "", items)
		}
		p.Print(cli.FormatHelp("run `eavforge generate` to update it"))
	}

	if !cmp.Match {
		return errCheckFailed
	}
	return nil
}

func columnChanges(d *fingerprint.BlockDiff) []string {
	var out []string
	for _, c := range d.MissingColumns {
		out = append(out, "- "+c)
	}
	for _, c := range d.ExtraColumns {
		out = append(out, "+ "+c)
	}
	for _, c := range d.ModifiedColumns {
		out = append(out, "~ "+c)
	}
	return out
}

// printBlocks prints a titled list of drift items.
func printBlocks(p *cli.Printer, title, symbol string, items []string) {
	if len(items) == 0 {
		return
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item
		if symbol != "" {
			lines[i] = cli.Dim(symbol) + " " + item
		}
	}
	p.Print(cli.Indent(title+":\n"+cli.Indent(strings.Join(lines, "\n"), 2), 2) + "\n")
}
