package external

import (
	"os"
	"regexp"
	"strings"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
)

var (
	modelBlockRe = regexp.MustCompile(`(?ms)^\s*model\s+(\w+)\s*\{(.*?)^\s*\}`)
	fieldLineRe  = regexp.MustCompile(`^(\w+)\s+(\w+)(\[\])?(\?)?(?:\s+(.*))?$`)
	blockAttrRe  = regexp.MustCompile(`^@@(index|unique|map)\((.*)\)$`)
	bracketRe    = regexp.MustCompile(`\[([^\]]*)\]`)
	quotedRe     = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"`)
	relNameRe    = regexp.MustCompile(`name:\s*"([^"]*)"`)
	relFieldsRe  = regexp.MustCompile(`fields:\s*\[([^\]]*)\]`)
	relRefsRe    = regexp.MustCompile(`references:\s*\[([^\]]*)\]`)
	relDeleteRe  = regexp.MustCompile(`onDelete:\s*(\w+)`)
	relUpdateRe  = regexp.MustCompile(`onUpdate:\s*(\w+)`)
	idAttrRe     = regexp.MustCompile(`(^|\s)@id\b`)
	uniqueAttrRe = regexp.MustCompile(`(^|\s)@unique\b`)
	updatedAtRe  = regexp.MustCompile(`(^|\s)@updatedAt\b`)
)

// ParseFile reads a schema file and extracts its model blocks.
func ParseFile(path string) ([]*ast.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrExternalLoad, err, "failed to read external schema").
			WithFile(path, 0)
	}
	return Parse(string(data)), nil
}

// Parse extracts model blocks from schema text. Datasource, generator and
// enum blocks are ignored, as are comments and unknown attributes.
func Parse(src string) []*ast.Table {
	var tables []*ast.Table
	for _, m := range modelBlockRe.FindAllStringSubmatch(src, -1) {
		t := &ast.Table{Name: m[1]}
		for _, raw := range strings.Split(m[2], "\n") {
			parseLine(t, strings.TrimSpace(raw))
		}
		tables = append(tables, t)
	}
	return tables
}

func parseLine(t *ast.Table, line string) {
	if line == "" || strings.HasPrefix(line, "//") {
		return
	}

	if strings.HasPrefix(line, "@@") {
		m := blockAttrRe.FindStringSubmatch(line)
		if m == nil {
			return
		}
		switch m[1] {
		case "index":
			if cols := bracketList(m[2]); len(cols) > 0 {
				t.AddIndex(cols...)
			}
		case "unique":
			if cols := bracketList(m[2]); len(cols) > 0 {
				t.AddUnique(cols...)
			}
		case "map":
			t.Map = unquote(m[2])
		}
		return
	}

	m := fieldLineRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	attrs := m[5]
	col := &ast.Column{
		Name:      m[1],
		Type:      m[2],
		List:      m[3] != "",
		Optional:  m[4] != "" && m[3] == "", // An empty list stands for absence
		ID:        idAttrRe.MatchString(attrs),
		Unique:    uniqueAttrRe.MatchString(attrs),
		UpdatedAt: updatedAtRe.MatchString(attrs),
	}
	if def, ok := attrArgs(attrs, "@default"); ok {
		col.Default = def
	}
	if mp, ok := attrArgs(attrs, "@map"); ok {
		col.Map = unquote(mp)
	}
	if rel, ok := attrArgs(attrs, "@relation"); ok {
		col.Relation = parseRelation(rel)
	}
	t.AddColumns(col)
}

// attrArgs returns the balanced argument text of the attribute name.
func attrArgs(attrs, name string) (string, bool) {
	i := strings.Index(attrs, name+"(")
	if i < 0 {
		return "", false
	}
	start := i + len(name) + 1
	depth := 1
	inString := false
	for j := start; j < len(attrs); j++ {
		switch c := attrs[j]; {
		case c == '\\' && inString:
			j++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return attrs[start:j], true
			}
		}
	}
	return "", false
}

func parseRelation(args string) *ast.Relation {
	r := &ast.Relation{}
	if m := quotedRe.FindStringSubmatch(strings.TrimSpace(args)); m != nil {
		r.Name = m[1]
	} else if m := relNameRe.FindStringSubmatch(args); m != nil {
		r.Name = m[1]
	}
	if m := relFieldsRe.FindStringSubmatch(args); m != nil {
		r.Fields = splitList(m[1])
	}
	if m := relRefsRe.FindStringSubmatch(args); m != nil {
		r.References = splitList(m[1])
	}
	if m := relDeleteRe.FindStringSubmatch(args); m != nil {
		r.OnDelete = m[1]
	}
	if m := relUpdateRe.FindStringSubmatch(args); m != nil {
		r.OnUpdate = m[1]
	}
	return r
}

func bracketList(s string) []string {
	m := bracketRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return splitList(m[1])
}

// splitList splits "a, b(sort: Desc)" into bare column names.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if i := strings.IndexAny(part, "( "); i >= 0 {
			part = part[:i]
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if m := quotedRe.FindStringSubmatch(s); m != nil {
		return strings.ReplaceAll(strings.ReplaceAll(m[1], `\"`, `"`), `\\`, `\`)
	}
	return s
}
