package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

// DefaultMaxRows caps ReadOnlyQuery results when no limit is given.
const DefaultMaxRows = 1000

// Keywords that may not appear outside literals in an ad-hoc query.
var forbiddenKeywords = map[string]bool{
	"insert": true, "update": true, "delete": true, "drop": true, "alter": true,
	"create": true, "truncate": true, "attach": true, "detach": true,
	"pragma": true, "vacuum": true, "reindex": true, "grant": true, "revoke": true,
	"copy": true, "merge": true, "call": true, "execute": true, "into": true,
	"load_extension": true, "lock": true,
}

// CheckSelect validates that query is a single read-only SELECT (or WITH ...
// SELECT) statement and returns it with comments and trailing semicolons
// removed.
func CheckSelect(query string) (string, error) {
	stripped := stripComments(query)
	stripped = strings.TrimSpace(stripped)
	for strings.HasSuffix(stripped, ";") {
		stripped = strings.TrimSpace(strings.TrimSuffix(stripped, ";"))
	}
	if stripped == "" {
		return "", fmt.Errorf("%w: empty query", ErrNotSelect)
	}

	words, separators := scanTokens(stripped)
	if separators > 0 {
		return "", fmt.Errorf("%w: multiple statements", ErrNotSelect)
	}
	if len(words) == 0 || (words[0] != "select" && words[0] != "with") {
		return "", fmt.Errorf("%w: query must start with SELECT", ErrNotSelect)
	}
	hasSelect := false
	for _, w := range words {
		if forbiddenKeywords[w] {
			return "", fmt.Errorf("%w: %s is not permitted", ErrNotSelect, strings.ToUpper(w))
		}
		if w == "select" {
			hasSelect = true
		}
	}
	if !hasSelect {
		return "", fmt.Errorf("%w: no SELECT found", ErrNotSelect)
	}
	return stripped, nil
}

// ReadOnlyQuery runs a single SELECT and returns at most maxRows rows. On
// PostgreSQL the statement also runs in a read-only transaction; the
// transaction is always rolled back.
func (db *DB) ReadOnlyQuery(ctx context.Context, query string, maxRows int) (*QueryResult, error) {
	stmt, err := CheckSelect(query)
	if err != nil {
		return nil, err
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	tx, err := db.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: db.dialect.readOnlyTx})
	if err != nil {
		return nil, wrapErr("begin read-only query", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, stmt)
	if err != nil {
		return nil, wrapErr("running query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapErr("reading columns", err)
	}
	res := &QueryResult{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		if len(res.Rows) >= maxRows {
			res.Truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapErr("scanning row", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("running query", err)
	}
	return res, nil
}

// stripComments removes -- and /* */ comments that are not inside quotes.
func stripComments(s string) string {
	var b strings.Builder
	var quote rune
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"' || r == '`':
			quote = r
			b.WriteRune(r)
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			b.WriteRune(' ')
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for i+1 < len(rs) && !(rs[i] == '*' && rs[i+1] == '/') {
				i++
			}
			i++
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// scanTokens returns the lower-cased bare words outside quotes and the
// number of statement separators found.
func scanTokens(s string) ([]string, int) {
	var words []string
	var word strings.Builder
	var quote rune
	separators := 0
	flush := func() {
		if word.Len() > 0 {
			words = append(words, strings.ToLower(word.String()))
			word.Reset()
		}
	}
	for _, r := range s {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"' || r == '`':
			flush()
			quote = r
		case r == ';':
			flush()
			separators++
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words, separators
}
