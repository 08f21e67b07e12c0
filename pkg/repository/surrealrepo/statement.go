package surrealrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// abortedMessage marks statements SurrealDB skipped because an earlier one
// in the same transaction failed.
const abortedMessage = "failed transaction"

// statement is one write rendered into a transaction.
type statement struct {
	entity string
	op     string
	kind   repository.ErrorType
	// results is the number of query results the rendered text produces.
	results int
	render  func(n int, vars map[string]any) string
}

func recordIDFor(table string, id any) models.RecordID {
	switch v := id.(type) {
	case models.RecordID:
		return v
	case *models.RecordID:
		return *v
	case interface{ RecordID() models.RecordID }:
		return v.RecordID()
	}
	return models.NewRecordID(table, id)
}

func createStatement(entity, op string, rid models.RecordID, data any) statement {
	return statement{
		entity:  entity,
		op:      op,
		kind:    repository.ErrorAdd,
		results: 1,
		render: func(n int, vars map[string]any) string {
			vars[fmt.Sprintf("rid_%d", n)] = rid
			vars[fmt.Sprintf("data_%d", n)] = data
			return fmt.Sprintf("CREATE $rid_%d CONTENT $data_%d", n, n)
		},
	}
}

// updateStatement throws when the record is missing so the whole
// transaction aborts.
func updateStatement(entity, op string, rid models.RecordID, data any) statement {
	return statement{
		entity:  entity,
		op:      op,
		kind:    repository.ErrorUpdate,
		results: 2,
		render: func(n int, vars map[string]any) string {
			vars[fmt.Sprintf("rid_%d", n)] = rid
			vars[fmt.Sprintf("data_%d", n)] = data
			return fmt.Sprintf("IF (SELECT VALUE id FROM ONLY $rid_%d) = NONE { THROW %q };\n"+
				"UPDATE $rid_%d CONTENT $data_%d",
				n, repository.ErrStale.Error(), n, n)
		},
	}
}

func deleteStatement(entity, op string, rid models.RecordID) statement {
	return statement{
		entity:  entity,
		op:      op,
		kind:    repository.ErrorDelete,
		results: 1,
		render: func(n int, vars map[string]any) string {
			vars[fmt.Sprintf("rid_%d", n)] = rid
			return fmt.Sprintf("DELETE $rid_%d RETURN BEFORE", n)
		},
	}
}

func deleteWhereStatement(entity, table, cond string, args []any) statement {
	return statement{
		entity:  entity,
		op:      "DeleteWhere",
		kind:    repository.ErrorDelete,
		results: 1,
		render: func(n int, vars map[string]any) string {
			vars[fmt.Sprintf("table_%d", n)] = models.Table(table)
			sql := fmt.Sprintf("DELETE $table_%d", n)
			if cond != "" {
				sql += " WHERE " + bind(cond, args, vars, fmt.Sprintf("where_%d", n))
			}
			return sql + " RETURN BEFORE"
		},
	}
}

// transaction renders stmts into one BEGIN/COMMIT block.
func transaction(stmts []statement) (string, map[string]any) {
	vars := map[string]any{}
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	for i, s := range stmts {
		b.WriteString(s.render(i+1, vars))
		b.WriteString(";\n")
	}
	b.WriteString("COMMIT TRANSACTION;")
	return b.String(), vars
}

// execute sends stmts in one transaction and returns the number of records
// they returned. On failure it also returns the index of the statement
// responsible, or 0 when none can be singled out.
func execute(ctx context.Context, db *surrealdb.DB, stmts []statement) (int64, int, error) {
	sql, vars := transaction(stmts)
	results, err := surrealdb.Query[any](ctx, db, sql, vars)
	if results == nil {
		if err == nil {
			err = errors.New("no query results")
		}
		return 0, 0, err
	}
	return tally(stmts, *results, err)
}

// tally maps the results of a rendered transaction back to stmts. It counts
// the records returned by successful statements and, when any statement
// failed, picks the one that caused the abort over those SurrealDB only
// skipped.
func tally(stmts []statement, results []surrealdb.QueryResult[any], err error) (int64, int, error) {
	var (
		total  int64
		failed = -1
		msg    string
	)
	pos := 0
	for i, s := range stmts {
		for j := 0; j < s.results && pos < len(results); j++ {
			res := results[pos]
			pos++
			if res.Status != "" && res.Status != "OK" {
				text := fmt.Sprint(res.Result)
				if failed < 0 || (strings.Contains(msg, abortedMessage) && !strings.Contains(text, abortedMessage)) {
					failed, msg = i, text
				}
				continue
			}
			if records, ok := res.Result.([]any); ok {
				total += int64(len(records))
			}
		}
	}

	if failed < 0 && err == nil {
		return total, 0, nil
	}
	if failed < 0 {
		failed = 0
	}
	if err == nil {
		err = errors.New(msg)
	}
	if strings.Contains(err.Error(), repository.ErrStale.Error()) || strings.Contains(msg, repository.ErrStale.Error()) {
		err = fmt.Errorf("%w: %v", repository.ErrStale, err)
	}
	return 0, failed, err
}

// notFound reports errors SurrealDB returns for selects of missing records.
func notFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

func classify(err error, fallback repository.ErrorType) repository.ErrorType {
	if errors.Is(err, repository.ErrStale) {
		return repository.ErrorConcurrency
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "already contains"):
		return repository.ErrorConstraintViolation
	case strings.Contains(msg, "read or write conflict"), strings.Contains(msg, "can be retried"):
		return repository.ErrorConcurrency
	}
	return fallback
}
