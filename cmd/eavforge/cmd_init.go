package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/cli"
)

const starterYAML = `# eavforge.yaml
output: ./prisma/schema.prisma

datasource:
  provider: postgresql
  url: 'env("DATABASE_URL")'

# Exactly one definition source: source, models or a hooks script with load().
source:
  url: ${DATABASE_URL}
  modelsTable: models
  # componentsTable: components

i18n:
  enabled: false
  locales: [en]

abTesting:
  enabled: false

naming:
  tables: PascalCase
  columns: snake_case

# externalModels:
#   - path: ./prisma/auth.prisma
#     include: [User, Media]

# hooks:
#   script: ./eavforge.hooks.js
#   timeout: 5s
`

const starterTOML = `# eavforge.toml
output = "./prisma/schema.prisma"

[datasource]
provider = "postgresql"
url = 'env("DATABASE_URL")'

# Exactly one definition source: source, models or a hooks script with load().
[source]
url = "${DATABASE_URL}"
modelsTable = "models"
# componentsTable = "components"

[i18n]
enabled = false
locales = ["en"]

[abTesting]
enabled = false

[naming]
tables = "PascalCase"
columns = "snake_case"

# [[externalModels]]
# path = "./prisma/auth.prisma"
# include = ["User", "Media"]

# [hooks]
# script = "./eavforge.hooks.js"
# timeout = "5s"
`

// initCmd writes a starter config file.
func initCmd(a *app) *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Example: `  eavforge init
  eavforge init --format toml
  eavforge init -c config/eavforge.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch format {
			case "yaml", "yml":
				content = starterYAML
			case "toml":
				content = starterTOML
			default:
				return alerr.Newf(alerr.ErrConfigInvalid, "unknown format %q", format).
					WithHelp("use --format yaml or --format toml")
			}

			path := a.configPath
			if path == "" {
				path = "eavforge." + format
			}
			if _, err := os.Stat(path); err == nil && !force {
				return alerr.New(alerr.ErrConfigInvalid, "config file already exists").
					WithFile(path, 0).
					WithHelp("pass --force to overwrite it")
			}

			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return alerr.Wrap(alerr.ErrWriteOutput, err, "failed to write config file").
					WithFile(path, 0)
			}
			a.printer().Print(cli.FormatSuccess(fmt.Sprintf("created %s", path)))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Config format: yaml or toml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
