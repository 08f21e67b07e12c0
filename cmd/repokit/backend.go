package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/config"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/gormrepo"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/mongorepo"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/surrealrepo"
)

type productStore = repository.Store[models.Product, models.ProductID]

// unitOfWorkName is the key of the products unit of work in the manager.
const unitOfWorkName = "products"

// backend is an opened products store with the operations that differ per
// backend.
type backend struct {
	store productStore

	// migrate creates the schema. Nil when the backend has none.
	migrate func(ctx context.Context) error
	// addAll inserts products atomically and returns how many were written.
	addAll func(ctx context.Context, products []*models.Product) (int, error)
	close  func(ctx context.Context) error
}

// closeBackend closes b and logs a failure instead of returning it.
func (c *cli) closeBackend(b *backend) {
	if err := b.close(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("failed to close backend")
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres, config.BackendSQLite:
		return openGorm(ctx, cfg, log)
	case config.BackendSurrealDB:
		return openSurreal(ctx, cfg, log)
	case config.BackendMongoDB:
		return openMongo(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func openGorm(_ context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	db, err := gormrepo.Open(cfg.Gorm(), log)
	if err != nil {
		return nil, err
	}
	store, err := gormrepo.New[models.Product, models.ProductID](db, gormrepo.WithLogger(log))
	if err != nil {
		_ = gormrepo.Close(db)
		return nil, err
	}

	units := repository.NewManager[*gormrepo.UnitOfWork](log)
	units.Register(unitOfWorkName, func(context.Context) (*gormrepo.UnitOfWork, error) {
		return gormrepo.NewUnitOfWork(db, gormrepo.WithUnitOfWorkLogger(log)), nil
	})

	return &backend{
		store: store,
		migrate: func(ctx context.Context) error {
			return gormrepo.Migrate(ctx, db, &models.Product{})
		},
		addAll: func(ctx context.Context, products []*models.Product) (int, error) {
			return addInUnitOfWork(ctx, units, func(u *gormrepo.UnitOfWork) (productStore, error) {
				return gormrepo.RepositoryOf[models.Product, models.ProductID](u)
			}, products)
		},
		close: func(context.Context) error {
			return gormrepo.Close(db)
		},
	}, nil
}

func openSurreal(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	db, err := surrealrepo.Connect(ctx, cfg.SurrealDB(), log)
	if err != nil {
		return nil, err
	}

	units := repository.NewManager[*surrealrepo.UnitOfWork](log)
	units.Register(unitOfWorkName, func(context.Context) (*surrealrepo.UnitOfWork, error) {
		return surrealrepo.NewUnitOfWork(db, surrealrepo.WithUnitOfWorkLogger(log)), nil
	})

	return &backend{
		store: surrealrepo.New[models.Product, models.ProductID](db, surrealrepo.WithLogger(log)),
		addAll: func(ctx context.Context, products []*models.Product) (int, error) {
			return addInUnitOfWork(ctx, units, func(u *surrealrepo.UnitOfWork) (productStore, error) {
				return surrealrepo.RepositoryOf[models.Product, models.ProductID](u)
			}, products)
		},
		close: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	}, nil
}

// openMongo has no unit of work; AddRange is a single InsertMany.
func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	db, err := mongorepo.Connect(ctx, cfg.MongoDB(), log)
	if err != nil {
		return nil, err
	}
	store := mongorepo.New[models.Product, models.ProductID](db, mongorepo.WithLogger(log))

	return &backend{
		store: store,
		addAll: func(ctx context.Context, products []*models.Product) (int, error) {
			if err := store.AddRange(ctx, products); err != nil {
				return 0, err
			}
			return len(products), nil
		},
		close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}, nil
}

// addInUnitOfWork stages products on the repository bound to the managed
// unit of work and saves them in one commit.
func addInUnitOfWork[U repository.UnitOfWork](
	ctx context.Context,
	units *repository.Manager[U],
	repositoryOf func(U) (productStore, error),
	products []*models.Product,
) (_ int, err error) {
	defer func() {
		if closeErr := units.Close(); err == nil {
			err = closeErr
		}
	}()

	uow, err := units.Get(ctx, unitOfWorkName)
	if err != nil {
		return 0, err
	}
	repo, err := repositoryOf(uow)
	if err != nil {
		return 0, err
	}
	if err := repo.AddRange(ctx, products); err != nil {
		uow.Rollback()
		return 0, err
	}
	return uow.SaveChanges(ctx)
}
