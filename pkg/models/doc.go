// Package models defines the product entity served by the sample API and
// seeded by the repokit command.
//
// [ProductID] wraps a UUID and knows how to travel through every backend:
// as a string in JSON, BSON and SQL, and as a record ID (CBOR tag 8,
// [table, id]) when talking to SurrealDB.
package models
