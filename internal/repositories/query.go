package repositories

import (
	"fmt"
	"strings"
)

// whereBuilder collects positional-parameter conditions for dynamic filters.
type whereBuilder struct {
	conditions []string
	args       []interface{}
	argCount   int
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{argCount: 1}
}

// add appends a condition; every "?" in cond is replaced by the next positional parameter.
func (w *whereBuilder) add(cond string, args ...interface{}) {
	for _, arg := range args {
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", w.argCount), 1)
		w.args = append(w.args, arg)
		w.argCount++
	}
	w.conditions = append(w.conditions, cond)
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// paginate returns a LIMIT/OFFSET clause and appends its arguments. pageSize <= 0 disables it.
func paginate(args *[]interface{}, argCount *int, page, pageSize int) string {
	if pageSize <= 0 {
		return ""
	}
	clause := fmt.Sprintf(" LIMIT $%d", *argCount)
	*args = append(*args, pageSize)
	*argCount++
	if page > 1 {
		clause += fmt.Sprintf(" OFFSET $%d", *argCount)
		*args = append(*args, (page-1)*pageSize)
		*argCount++
	}
	return clause
}

// likePattern lower-cases and wraps a search term for LIKE matching.
func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
