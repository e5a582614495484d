package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hlop3z/eavforge/internal/cli"
	"github.com/hlop3z/eavforge/pkg/eavforge"
)

// tableReport is one row of the analyze output.
type tableReport struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Model   string `json:"model,omitempty"`
	Columns int    `json:"columns"`
	Hash    string `json:"hash"`
}

// analyzeReport is the JSON form of analyze.
type analyzeReport struct {
	Models        []string            `json:"models"`
	Components    []string            `json:"components"`
	Tables        []tableReport       `json:"tables"`
	Warnings      []string            `json:"warnings"`
	ModelWarnings map[string][]string `json:"modelWarnings"`
	Fingerprint   string              `json:"fingerprint"`
}

// analyzeCmd generates in memory and reports what would be written.
func analyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Show models, tables, warnings and fingerprints without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, s, err := a.generator()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := gen.Generate(cmd.Context())
			if err != nil {
				return err
			}
			report := buildReport(res)

			p := a.printer()
			if a.jsonOutput {
				return p.JSON(report)
			}

			p.Print(cli.FormatKeyValue("models", fmt.Sprint(report.Models)) + "\n")
			p.Print(cli.FormatKeyValue("components", fmt.Sprint(report.Components)) + "\n")
			p.Print(cli.FormatKeyValue("fingerprint", report.Fingerprint) + "\n\n")

			table := cli.NewTable("TABLE", "KIND", "MODEL", "COLUMNS", "HASH")
			for _, t := range report.Tables {
				table.AddRow(t.Name, t.Kind, t.Model, strconv.Itoa(t.Columns), short(t.Hash))
			}
			p.Print(table.String())

			if len(report.Warnings) > 0 {
				p.Print("\n")
				p.Warnings(report.Warnings)
			}
			return nil
		},
	}

	a.addOverrideFlags(cmd.Flags())
	a.addJSONFlag(cmd.Flags())
	return cmd
}

// shortHash is the displayed prefix length of a block hash.
const shortHash = 12

func short(hash string) string {
	if len(hash) > shortHash {
		return hash[:shortHash]
	}
	return hash
}

func buildReport(res *eavforge.Result) analyzeReport {
	report := analyzeReport{
		Models:        nonNil(res.Models),
		Components:    nonNil(res.Components),
		Tables:        make([]tableReport, 0, len(res.Tables)),
		Warnings:      nonNil(res.Warnings),
		ModelWarnings: res.ModelWarnings,
		Fingerprint:   res.Fingerprint.Root,
	}
	for _, t := range res.Tables {
		row := tableReport{Name: t.Name, Kind: t.Kind, Model: t.Model}
		if tbl := res.Schema.Table(t.Name); tbl != nil {
			row.Columns = len(tbl.Columns)
		}
		if b, ok := res.Fingerprint.Blocks["model "+t.Name]; ok {
			row.Hash = b.Hash
		}
		report.Tables = append(report.Tables, row)
	}
	return report
}
