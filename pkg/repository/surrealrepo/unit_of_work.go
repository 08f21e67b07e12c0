package surrealrepo

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// UnitOfWork stages writes of the repositories resolved through it and
// sends them in one SurrealQL transaction.
type UnitOfWork struct {
	db       *surrealdb.DB
	repos    *repository.Registry
	log      zerolog.Logger
	ownsConn bool

	mu      sync.Mutex
	pending []statement
	closed  bool
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWorkOption configures a UnitOfWork.
type UnitOfWorkOption func(*UnitOfWork)

// WithOwnedConnection makes Close also close the connection.
func WithOwnedConnection() UnitOfWorkOption {
	return func(u *UnitOfWork) {
		u.ownsConn = true
	}
}

// WithUnitOfWorkLogger sets the logger of the unit of work and its
// repositories.
func WithUnitOfWorkLogger(log zerolog.Logger) UnitOfWorkOption {
	return func(u *UnitOfWork) {
		u.log = log
	}
}

// NewUnitOfWork returns a unit of work over db.
func NewUnitOfWork(db *surrealdb.DB, opts ...UnitOfWorkOption) *UnitOfWork {
	u := &UnitOfWork{
		db:    db,
		repos: repository.NewRegistry(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RepositoryOf returns the repository of T bound to u. Repeated calls return
// the same instance, so options only apply to the first call.
func RepositoryOf[T any, K comparable](u *UnitOfWork, opts ...Option) (*Repository[T, K], error) {
	u.mu.Lock()
	closed := u.closed
	u.mu.Unlock()
	if closed {
		return nil, repository.ErrClosed
	}

	return repository.Resolve(u.repos, func() (*Repository[T, K], error) {
		return newRepository[T, K](u.db, u, append([]Option{WithLogger(u.log)}, opts...)...), nil
	})
}

func (u *UnitOfWork) stage(stmts ...statement) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repository.ErrClosed
	}
	u.pending = append(u.pending, stmts...)
	return nil
}

// Pending reports how many statements are staged.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// SaveChanges sends the staged writes in one transaction and returns the
// number of records they touched. When the transaction fails the staged
// writes are kept.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return 0, repository.ErrClosed
	}
	if len(u.pending) == 0 {
		return 0, nil
	}

	total, idx, err := execute(ctx, u.db, u.pending)
	if err != nil {
		failed := u.pending[idx]
		kind := classify(err, repository.ErrorSaveChanges)
		u.log.Error().Err(err).Str("entity", failed.entity).Str("op", failed.op).Stringer("type", kind).Msg("save changes failed")
		return 0, repository.NewError(kind, failed.entity, "SaveChanges", err)
	}

	u.log.Debug().Int("changes", len(u.pending)).Int64("records", total).Msg("changes saved")
	u.pending = nil
	return int(total), nil
}

// Rollback discards staged writes.
func (u *UnitOfWork) Rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n := len(u.pending); n > 0 {
		u.log.Debug().Int("changes", n).Msg("changes discarded")
	}
	u.pending = nil
}

// Close discards staged writes and releases cached repositories. With
// WithOwnedConnection it also closes the connection.
func (u *UnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.pending = nil
	u.repos.Reset()
	if u.ownsConn {
		return u.db.Close(context.Background())
	}
	return nil
}
