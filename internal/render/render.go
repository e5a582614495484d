// Package render serializes an ast.Schema into Prisma schema text.
// Output is deterministic: the same schema always renders byte-identical.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/strutil"
)

// ValidationMarker prefixes validation comments read by zod-prisma style generators.
const ValidationMarker = "/// @zod."

// Schema renders the datasource, generators and tables, separated by blank
// lines and terminated by a newline.
func Schema(s *ast.Schema) string {
	blocks := make([]string, 0, 1+len(s.Generators)+len(s.Tables))
	blocks = append(blocks, Datasource(s.Datasource))
	for _, g := range s.Generators {
		blocks = append(blocks, Generator(g))
	}
	for _, t := range s.Tables {
		blocks = append(blocks, Table(t))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// Datasource renders the datasource block.
func Datasource(d ast.Datasource) string {
	entries := [][2]string{
		{"provider", strutil.Quote(d.Provider)},
		{"url", urlValue(d.URL)},
	}
	if d.DirectURL != "" {
		entries = append(entries, [2]string{"directUrl", urlValue(d.DirectURL)})
	}
	return block("datasource db", entries)
}

// Generator renders one generator block.
func Generator(g ast.Generator) string {
	entries := [][2]string{{"provider", strutil.Quote(g.Provider)}}
	if g.Output != "" {
		entries = append(entries, [2]string{"output", strutil.Quote(g.Output)})
	}
	for _, key := range g.ConfigKeys() {
		entries = append(entries, [2]string{key, configValue(g.Config[key])})
	}
	return block("generator "+g.Name, entries)
}

func urlValue(url string) string {
	if ast.IsEnvReference(url) {
		return url
	}
	return strutil.Quote(url)
}

// configValue renders lists as quoted bracketed lists, strings quoted,
// and other scalars in their native form.
func configValue(v any) string {
	switch val := v.(type) {
	case string:
		return strutil.Quote(val)
	case []string:
		items := make([]string, len(val))
		for i, s := range val {
			items[i] = strutil.Quote(s)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = strutil.Quote(fmt.Sprint(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return fmt.Sprint(v)
}

func block(header string, entries [][2]string) string {
	width := 0
	for _, e := range entries {
		width = max(width, len(e[0]))
	}

	var b strings.Builder
	b.WriteString(header + " {\n")
	for _, e := range entries {
		b.WriteString("  " + strutil.PadRight(e[0], width) + " = " + e[1] + "\n")
	}
	b.WriteString("}")
	return b.String()
}

// -----------------------------------------------------------------------------
// Tables
// -----------------------------------------------------------------------------

// Table renders one model block. Column names and types are aligned to
// the widest in the table.
func Table(t *ast.Table) string {
	nameWidth, typeWidth := 0, 0
	for _, c := range t.Columns {
		nameWidth = max(nameWidth, len(c.Name))
		typeWidth = max(typeWidth, len(FieldType(c)))
	}

	var b strings.Builder
	b.WriteString("model " + t.Name + " {\n")
	for _, c := range t.Columns {
		if comment := ValidationComment(c); comment != "" {
			b.WriteString("  " + comment + "\n")
		}
		line := strutil.PadRight(c.Name, nameWidth) + " " + strutil.PadRight(FieldType(c), typeWidth)
		if attrs := Attributes(c); attrs != "" {
			line += " " + attrs
		}
		b.WriteString("  " + strings.TrimRight(line, " ") + "\n")
	}

	var directives []string
	for _, cols := range t.Indexes {
		directives = append(directives, "@@index(["+strings.Join(cols, ", ")+"])")
	}
	for _, cols := range t.Uniques {
		directives = append(directives, "@@unique(["+strings.Join(cols, ", ")+"])")
	}
	if t.Map != "" {
		directives = append(directives, "@@map("+strutil.Quote(t.Map)+")")
	}
	if len(directives) > 0 {
		b.WriteString("\n")
		for _, d := range directives {
			b.WriteString("  " + d + "\n")
		}
	}

	b.WriteString("}")
	return b.String()
}

// FieldType renders a column type with its modifier. List wins over optional.
func FieldType(c *ast.Column) string {
	switch {
	case c.List:
		return c.Type + "[]"
	case c.Optional:
		return c.Type + "?"
	}
	return c.Type
}

// Attributes renders the column attributes in a fixed order.
func Attributes(c *ast.Column) string {
	var attrs []string
	if c.ID {
		attrs = append(attrs, "@id")
	}
	if c.Unique {
		attrs = append(attrs, "@unique")
	}
	if c.Default != "" {
		attrs = append(attrs, "@default("+c.Default+")")
	}
	if c.UpdatedAt {
		attrs = append(attrs, "@updatedAt")
	}
	if c.Relation != nil {
		attrs = append(attrs, relation(c.Relation))
	}
	if c.Map != "" {
		attrs = append(attrs, "@map("+strutil.Quote(c.Map)+")")
	}
	return strings.Join(attrs, " ")
}

func relation(r *ast.Relation) string {
	var args []string
	if r.Name != "" {
		args = append(args, strutil.Quote(r.Name))
	}
	if len(r.Fields) > 0 {
		args = append(args,
			"fields: ["+strings.Join(r.Fields, ", ")+"]",
			"references: ["+strings.Join(r.References, ", ")+"]")
	}
	if r.OnDelete != "" {
		args = append(args, "onDelete: "+r.OnDelete)
	}
	if r.OnUpdate != "" {
		args = append(args, "onUpdate: "+r.OnUpdate)
	}
	return "@relation(" + strings.Join(args, ", ") + ")"
}

// -----------------------------------------------------------------------------
// Validation comments
// -----------------------------------------------------------------------------

// ValidationComment renders the column's validation metadata as a single
// annotation comment, or "" when no validator applies. Validators appear
// in a fixed order: format, string, numeric, array, custom.
func ValidationComment(c *ast.Column) string {
	v := c.Validation
	if v == nil {
		return ""
	}

	var parts []string
	add := func(ok bool, s string) {
		if ok {
			parts = append(parts, s)
		}
	}

	add(v.Email, "email()")
	add(v.URL, "url()")
	add(v.UUID, "uuid()")
	add(v.CUID, "cuid()")

	if v.MinLength != nil {
		parts = append(parts, fmt.Sprintf("min(%d)", *v.MinLength))
	}
	if v.MaxLength != nil {
		parts = append(parts, fmt.Sprintf("max(%d)", *v.MaxLength))
	}
	add(v.Pattern != "", "regex(/"+v.Pattern+"/)")

	if v.Min != nil {
		parts = append(parts, "min("+number(*v.Min)+")")
	}
	if v.Max != nil {
		parts = append(parts, "max("+number(*v.Max)+")")
	}
	add(v.Int, "int()")
	add(v.Positive, "positive()")
	add(v.Negative, "negative()")

	if v.MinItems != nil {
		parts = append(parts, fmt.Sprintf("length(%d)", *v.MinItems))
	}
	if v.MaxItems != nil {
		parts = append(parts, fmt.Sprintf("length(%d)", *v.MaxItems))
	}
	add(v.Custom != "", v.Custom)

	if len(parts) == 0 {
		return ""
	}
	return ValidationMarker + strings.Join(parts, ".")
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
