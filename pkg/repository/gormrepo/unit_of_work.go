package gormrepo

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// change is a staged write.
type change struct {
	entity string
	op     string
	kind   repository.ErrorType
	apply  func(tx *gorm.DB) (int64, error)
}

// UnitOfWork stages writes of the repositories resolved through it and
// commits them in one transaction.
type UnitOfWork struct {
	db       *gorm.DB
	repos    *repository.Registry
	log      zerolog.Logger
	ownsConn bool

	mu      sync.Mutex
	pending []change
	closed  bool
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWorkOption configures a UnitOfWork.
type UnitOfWorkOption func(*UnitOfWork)

// WithOwnedConnection makes Close also close the connection pool.
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
func NewUnitOfWork(db *gorm.DB, opts ...UnitOfWorkOption) *UnitOfWork {
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
// the same instance.
func RepositoryOf[T any, K comparable](u *UnitOfWork) (*Repository[T, K], error) {
	u.mu.Lock()
	closed := u.closed
	u.mu.Unlock()
	if closed {
		return nil, repository.ErrClosed
	}

	return repository.Resolve(u.repos, func() (*Repository[T, K], error) {
		return newRepository[T, K](u.db, u, u.log)
	})
}

// DB returns the session the unit of work commits through.
func (u *UnitOfWork) DB() *gorm.DB {
	return u.db
}

func (u *UnitOfWork) stage(c change) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repository.ErrClosed
	}
	u.pending = append(u.pending, c)
	return nil
}

// Pending reports how many writes are staged.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// SaveChanges applies the staged writes in order inside one transaction and
// returns the number of affected rows. When any write fails the transaction
// is rolled back and the staged writes are kept.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return 0, repository.ErrClosed
	}
	if len(u.pending) == 0 {
		return 0, nil
	}

	var (
		total  int64
		failed change
	)
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range u.pending {
			n, err := c.apply(tx)
			if err != nil {
				failed = c
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		kind := classify(err, repository.ErrorSaveChanges)
		u.log.Error().Err(err).Str("entity", failed.entity).Str("op", failed.op).Stringer("type", kind).Msg("save changes failed")
		return 0, repository.NewError(kind, failed.entity, "SaveChanges", err)
	}

	u.log.Debug().Int("changes", len(u.pending)).Int64("rows", total).Msg("changes saved")
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
// WithOwnedConnection it also closes the connection pool.
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
		return Close(u.db)
	}
	return nil
}
