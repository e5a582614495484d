package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/eavforge/internal/cli"
)

// validateCmd reads and validates definitions without compiling them.
func validateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Read and validate model and component definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, s, err := a.generator()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := gen.Validate(cmd.Context())
			if err != nil {
				return err
			}

			p := a.printer()
			if a.jsonOutput {
				return p.JSON(map[string]any{
					"ok":         true,
					"models":     nonNil(res.Models),
					"components": nonNil(res.Components),
				})
			}
			p.Print(cli.FormatSuccess(fmt.Sprintf("%s and %s are valid",
				cli.FormatCount(len(res.Models), "model", "models"),
				cli.FormatCount(len(res.Components), "component", "components"))))
			return nil
		},
	}

	a.addOverrideFlags(cmd.Flags())
	a.addJSONFlag(cmd.Flags())
	return cmd
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
