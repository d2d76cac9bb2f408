package repository

import (
	"fmt"
	"strings"
)

// where accumulates numbered PostgreSQL predicates.
type where struct {
	conditions []string
	args       []interface{}
}

// add appends a predicate whose "?" placeholders are all bound to value.
func (w *where) add(predicate string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, strings.ReplaceAll(predicate, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) sql() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " AND " + strings.Join(w.conditions, " AND ")
}

// orderBy resolves a whitelisted sort column and direction.
func orderBy(sortBy, sortOrder string, allowed map[string]string, fallback, fallbackOrder string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	order := strings.ToUpper(sortOrder)
	if order != "ASC" && order != "DESC" {
		order = fallbackOrder
	}
	return column + " " + order
}

// maxPageSize bounds a single query; exports read up to this many rows.
const maxPageSize = 5000

// limitOffset renders paging. Request sizes are normalised by the services.
func limitOffset(page, size int) string {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", size, (page-1)*size)
}
