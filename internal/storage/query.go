package storage

import (
	"fmt"
	"github.com/jmoiron/sqlx"
	"strconv"
	"strings"
)

// Eq is a single column = value predicate
type Eq struct {
	Column string
	Value  interface{}
}

// Cond is a group of predicates joined with OR. Conds of a Query are joined with AND.
type Cond []Eq

// Order is a single ORDER BY term
type Order struct {
	Column string
	Desc   bool
}

// Query is the storage-side form of a list request: filter, sort, skip, limit and projected columns
type Query struct {
	Columns []string
	Where   []Cond
	Order   []Order
	Offset  int
	Limit   int
}

// Select renders q as a select statement on table with bind parameters of bindType (sqlx.DOLLAR, sqlx.QUESTION).
// Every column q references must be in allowed, otherwise ErrUnknownColumn is returned.
// Rows are always ordered by id last so pages are stable.
func (q Query) Select(table string, allowed []string, bindType int) (string, []interface{}, error) {
	columns, err := SelectList(q.Columns, allowed)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("select ")
	sb.WriteString(columns)
	sb.WriteString(" from ")
	sb.WriteString(quote(table))

	var args []interface{}
	for i, cond := range q.Where {
		if len(cond) == 0 {
			continue
		}
		if i == 0 || len(args) == 0 {
			sb.WriteString(" where ")
		} else {
			sb.WriteString(" and ")
		}
		sb.WriteString("(")
		for j, eq := range cond {
			if !contains(allowed, eq.Column) {
				return "", nil, fmt.Errorf("%w: %s", ErrUnknownColumn, eq.Column)
			}
			if j > 0 {
				sb.WriteString(" or ")
			}
			args = append(args, eq.Value)
			sb.WriteString(quote(eq.Column))
			sb.WriteString(" = ?")
		}
		sb.WriteString(")")
	}

	terms := make([]string, 0, len(q.Order)+1)
	byID := false
	for _, o := range q.Order {
		if !contains(allowed, o.Column) {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownColumn, o.Column)
		}
		direction := " asc"
		if o.Desc {
			direction = " desc"
		}
		terms = append(terms, quote(o.Column)+direction)
		byID = byID || o.Column == "id"
	}
	if !byID {
		terms = append(terms, `"id" asc`)
	}
	sb.WriteString(" order by ")
	sb.WriteString(strings.Join(terms, ", "))

	if q.Limit > 0 {
		sb.WriteString(" limit ")
		sb.WriteString(strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString(" offset ")
		sb.WriteString(strconv.Itoa(q.Offset))
	}

	return sqlx.Rebind(bindType, sb.String()), args, nil
}

// SelectList renders quoted, comma separated columns, all allowed columns when columns is empty
func SelectList(columns, allowed []string) (string, error) {
	if len(columns) == 0 {
		columns = allowed
	}
	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		if !contains(allowed, c) {
			return "", fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		quoted = append(quoted, quote(c))
	}
	return strings.Join(quoted, ", "), nil
}

// WithColumns returns columns extended by extra ones missing from it. Empty columns means all and is returned as is.
func WithColumns(columns []string, extra ...string) []string {
	if len(columns) == 0 {
		return nil
	}
	out := append([]string(nil), columns...)
	for _, e := range extra {
		if !contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SetList renders `"a" = ?, "b" = ?` assignments for an update statement
func SetList(columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, quote(c)+" = ?")
	}
	return strings.Join(parts, ", ")
}
