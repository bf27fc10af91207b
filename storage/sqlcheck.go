package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// SchemaError reports a query that names a table or column the sales
// database does not have. The message is meant for the model to correct
// its query.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string { return e.Message }

// tableSchema maps each table to its lower-cased column names.
type tableSchema map[string][]string

func (ts tableSchema) tableNames() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *SalesDB) loadSchema(ctx context.Context) (tableSchema, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	schema := tableSchema{}
	for _, table := range tables {
		cols, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
		if err != nil {
			return nil, err
		}
		for cols.Next() {
			var (
				cid       int
				name      string
				colType   string
				notNull   int
				dfltValue sql.NullString
				pk        int
			)
			if err := cols.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
				cols.Close()
				return nil, err
			}
			schema[strings.ToLower(table)] = append(schema[strings.ToLower(table)], strings.ToLower(name))
		}
		if err := cols.Close(); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// checkSchema verifies that every table after FROM or JOIN exists and that
// plain column references in the outer select list belong to one of those
// tables. Function calls, expressions and * are not checked.
func (ts tableSchema) checkSchema(query string) error {
	tokens := lexSQL(query)

	fromAt := -1
	depth := 0
	for i, tok := range tokens {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
		case "from":
			if depth == 0 && fromAt < 0 {
				fromAt = i
			}
		}
	}
	if fromAt < 0 {
		return &SchemaError{Message: "Couldn't parse FROM clause in query"}
	}

	tables, err := ts.queriedTables(tokens)
	if err != nil {
		return err
	}

	var available []string
	for _, t := range tables {
		available = append(available, ts[t]...)
	}

	for _, expr := range splitSelectList(tokens[1:fromAt]) {
		col, ok := columnReference(expr)
		if !ok {
			continue
		}
		if !slices.Contains(available, col) {
			return &SchemaError{Message: fmt.Sprintf(
				"Column '%s' missing in queried tables. Available columns: %s",
				col, strings.Join(available, ", "))}
		}
	}
	return nil
}

// queriedTables returns the tables named after FROM, JOIN or a comma in a
// FROM list, at any nesting depth.
func (ts tableSchema) queriedTables(tokens []string) ([]string, error) {
	var tables []string
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != "from" && tokens[i] != "join" {
			continue
		}
		for j := i + 1; j < len(tokens); {
			name := tokens[j]
			if name == "(" {
				break
			}
			if _, ok := ts[name]; !ok {
				return nil, &SchemaError{Message: fmt.Sprintf(
					"Table '%s' doesn't exist in schema. Available tables: %s",
					name, strings.Join(ts.tableNames(), ", "))}
			}
			if !slices.Contains(tables, name) {
				tables = append(tables, name)
			}

			j++
			if j < len(tokens) && tokens[j] == "as" {
				j++
			}
			if j < len(tokens) && isAlias(tokens[j]) {
				j++
			}
			if j >= len(tokens) || tokens[j] != "," {
				break
			}
			j++
		}
	}
	return tables, nil
}

// sqlClauseWords end a table reference; anything else after a table name
// is its alias.
var sqlClauseWords = []string{
	"where", "join", "inner", "left", "right", "full", "outer", "cross", "natural",
	"on", "using", "group", "order", "limit", "having", "union", "except",
	"intersect", "window", "offset",
}

func isAlias(tok string) bool {
	if tok == "" || !isWordStart(rune(tok[0])) {
		return false
	}
	return !slices.Contains(sqlClauseWords, tok)
}

// splitSelectList splits the tokens between SELECT and FROM at top-level
// commas.
func splitSelectList(tokens []string) [][]string {
	if len(tokens) > 0 && (tokens[0] == "distinct" || tokens[0] == "all") {
		tokens = tokens[1:]
	}
	var out [][]string
	var cur []string
	depth := 0
	for _, tok := range tokens {
		switch {
		case tok == "(":
			depth++
		case tok == ")":
			depth--
		case tok == "," && depth == 0:
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// columnReference returns the column an expression names, ignoring any
// alias, if the expression is a plain (optionally qualified) column.
func columnReference(expr []string) (string, bool) {
	switch {
	case len(expr) == 3 && expr[1] == "as":
		expr = expr[:1]
	case len(expr) == 2 && isAlias(expr[1]):
		expr = expr[:1]
	}
	if len(expr) != 1 || expr[0] == "*" || !isWordStart(rune(expr[0][0])) {
		return "", false
	}
	ref := expr[0]
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		ref = ref[i+1:]
	}
	if ref == "*" || ref == "" {
		return "", false
	}
	return ref, true
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// lexSQL splits a query into lower-cased words (qualified names kept
// whole), numbers and single punctuation characters. String literals
// become a single "'" token and quoted identifiers lose their quotes.
func lexSQL(query string) []string {
	var tokens []string
	runes := []rune(query)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'':
			i++
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i += 2
						continue
					}
					break
				}
				i++
			}
			i++
			tokens = append(tokens, "'")
		case r == '"' || r == '`':
			end := i + 1
			for end < len(runes) && runes[end] != r {
				end++
			}
			tokens = append(tokens, strings.ToLower(string(runes[i+1:min(end, len(runes))])))
			i = end + 1
		case isWordStart(r) || unicode.IsDigit(r):
			start := i
			for i < len(runes) && (isWordStart(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == '*' && i > start && runes[i-1] == '.') {
				i++
			}
			tokens = append(tokens, strings.ToLower(string(runes[start:i])))
		default:
			tokens = append(tokens, string(r))
			i++
		}
	}
	return tokens
}
