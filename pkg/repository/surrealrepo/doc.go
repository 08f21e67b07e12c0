// Package surrealrepo implements the [github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository.Store]
// contract on a SurrealDB table.
//
// Each entity type maps to one table, named after the lower-cased Go type
// unless [WithTable] says otherwise. Entities are addressed by record ID: a
// key that is already a models.RecordID is used as is, a key with a
// RecordID() method converts itself, and any other key becomes
// table:key.
//
// Reads are built with [SelectQuery] and always bind values as query
// variables. Writes are rendered as CREATE, UPDATE and DELETE
// statements and sent inside a single BEGIN/COMMIT TRANSACTION block, so
// a range operation either applies fully or not at all.
//
// A [UnitOfWork] stages the writes of every repository it hands out and
// sends them in one transaction on SaveChanges.
package surrealrepo
