// Package mongorepo implements the [github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository.Store]
// contract on a MongoDB collection.
//
// Each entity type maps to one collection, named after the Go type unless
// [WithCollection] says otherwise. Keys live in the _id field, so entities
// should tag their key field with `bson:"_id"`.
//
// Update is a full ReplaceOne. UpdateRange sends one unordered BulkWrite of
// replace models, DeleteRange one DeleteMany with $in over the keys. Updates
// that match no document fail with repository.ErrStale.
//
// Filters become bson documents using $eq, $ne, $gt, $gte, $lt, $lte, $in,
// $regex, $and, $or and $nor, see [Translate].
//
// There is no unit of work for MongoDB. Writes are sent as they are called
// and tracking hints are ignored.
package mongorepo
