package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// invalidText reports whether postgres rejected a parameter that does not
// parse as the column type, such as a malformed uuid.
func invalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

// notFoundOnInvalidText maps a malformed identifier to sql.ErrNoRows so a
// lookup by an id that can never exist reads as a miss.
func notFoundOnInvalidText(err error) error {
	if invalidText(err) {
		return sql.ErrNoRows
	}
	return err
}

// whereBuilder accumulates positional postgres conditions.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " AND " + strings.Join(w.conditions, " AND ")
}

func orderBy(allowed map[string]string, sortBy, fallback, order, fallbackOrder string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[fallback]
	}
	order = strings.ToUpper(order)
	if order != "ASC" && order != "DESC" {
		order = fallbackOrder
	}
	return column + " " + order
}

func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
