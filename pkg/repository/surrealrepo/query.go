package surrealrepo

import (
	"strconv"
	"strings"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// SelectQuery is a parameterised SELECT over one table. Values never end up
// in the query text: the table, the filter arguments and nothing else are
// bound as query variables.
type SelectQuery struct {
	table    string
	fields   string
	where    string
	args     []any
	order    string
	desc     bool
	start    int
	limit    int
	groupAll bool
}

// From starts a SELECT * over table.
func From(table string) *SelectQuery {
	return &SelectQuery{table: table, fields: "*"}
}

// Fields replaces the projection, for example "count() AS total".
func (q *SelectQuery) Fields(fields string) *SelectQuery {
	q.fields = fields
	return q
}

// Where sets the condition. Each ? in cond is bound to the matching arg.
func (q *SelectQuery) Where(cond string, args ...any) *SelectQuery {
	q.where = cond
	q.args = args
	return q
}

// OrderBy orders by field. The caller validates the field name.
func (q *SelectQuery) OrderBy(field string, desc bool) *SelectQuery {
	q.order = field
	q.desc = desc
	return q
}

func (q *SelectQuery) Start(n int) *SelectQuery {
	q.start = n
	return q
}

// Limit caps the number of rows. Zero means no limit.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.limit = n
	return q
}

func (q *SelectQuery) GroupAll() *SelectQuery {
	q.groupAll = true
	return q
}

// Build renders the query text and its variables.
func (q *SelectQuery) Build() (string, map[string]any) {
	vars := map[string]any{"table": models.Table(q.table)}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(q.fields)
	b.WriteString(" FROM $table")
	if q.where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(bind(q.where, q.args, vars, "where"))
	}
	if q.groupAll {
		b.WriteString(" GROUP ALL")
	}
	if q.order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.order)
		if q.desc {
			b.WriteString(" DESC")
		}
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
	}
	if q.start > 0 {
		b.WriteString(" START ")
		b.WriteString(strconv.Itoa(q.start))
	}
	return b.String(), vars
}
