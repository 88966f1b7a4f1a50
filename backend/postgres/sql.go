package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jv92admin/fpltools/backend"
)

// BuildSelect renders q as a parameterised SELECT over schema.name.
// Identifiers are quoted with pgx.Identifier; values travel as arguments.
// Filters keep the in-memory semantics of backend.Query: "neq" matches
// missing cells and "ilike" takes % wildcards.
func BuildSelect(schema, name string, q backend.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = pgx.Identifier{c}.Sanitize()
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, pgx.Identifier{schema, name}.Sanitize())

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		field := pgx.Identifier{f.Field}.Sanitize()
		cond, err := condition(field, f, arg)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(cond)
	}

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST", pgx.Identifier{q.OrderBy}.Sanitize(), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args, nil
}

var comparisons = map[string]string{
	backend.OpEq:  "=",
	backend.OpGt:  ">",
	backend.OpGte: ">=",
	backend.OpLt:  "<",
	backend.OpLte: "<=",
}

func condition(field string, f backend.Filter, arg func(any) string) (string, error) {
	switch f.Op {
	case backend.OpEq, backend.OpGt, backend.OpGte, backend.OpLt, backend.OpLte:
		return fmt.Sprintf("%s %s %s", field, comparisons[f.Op], arg(f.Value)), nil
	case backend.OpNeq:
		return fmt.Sprintf("%s IS DISTINCT FROM %s", field, arg(f.Value)), nil
	case backend.OpIn:
		return fmt.Sprintf("%s = ANY(%s)", field, arg(listArg(f.Value))), nil
	case backend.OpILike:
		return fmt.Sprintf("%s ILIKE %s", field, arg(likeEscaper.Replace(f.Value.(string)))), nil
	case backend.OpIs:
		switch v := f.Value.(type) {
		case nil:
			return field + " IS NULL", nil
		case bool:
			if v {
				return field + " IS TRUE", nil
			}
			return field + " IS FALSE", nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "null":
				return field + " IS NULL", nil
			case "true":
				return field + " IS TRUE", nil
			case "false":
				return field + " IS FALSE", nil
			}
		}
		return "", fmt.Errorf("%w: 'is' accepts null, true or false", backend.ErrInvalidQuery)
	}
	return "", fmt.Errorf("%w: unknown operator %q", backend.ErrInvalidQuery, f.Op)
}

// likeEscaper makes _ and \ literal so only % is a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`)

// listArg turns an "in" value into a slice pgx can encode as an array.
// A list of only strings stays []string so it binds to text columns.
func listArg(v any) any {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		strs := make([]string, 0, len(vs))
		for _, item := range vs {
			s, ok := item.(string)
			if !ok {
				return vs
			}
			strs = append(strs, s)
		}
		return strs
	}
	return v
}
