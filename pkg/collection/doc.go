// Package collection provides helpers over in-memory slices of entities:
// pagination, sorting by field name, filtering, projection, de-duplication
// and grouping.
//
// Every helper returns a new slice and leaves its input untouched.
package collection
