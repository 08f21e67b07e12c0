package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/collection"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// ErrInvalidProduct is returned by Product.Validate.
var ErrInvalidProduct = errors.New("invalid product")

type Product struct {
	ID        ProductID `json:"id" bson:"_id" gorm:"primaryKey"`
	Name      string    `json:"name" bson:"name" gorm:"not null;uniqueIndex"`
	Price     float64   `json:"price" bson:"price" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (p Product) EntityID() ProductID { return p.ID }

// Validate checks the fields a client may set.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return nil
}

// Stamp assigns an ID and creation time when missing and sets the update
// time to now.
func (p *Product) Stamp(now time.Time) {
	if p.ID.IsZero() {
		p.ID = NewProductID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// ProductRepository adds product queries to any product store.
type ProductRepository struct {
	repository.Store[Product, ProductID]
}

func NewProductRepository(store repository.Store[Product, ProductID]) *ProductRepository {
	return &ProductRepository{Store: store}
}

// GetExpensiveProducts returns the products priced above minPrice, most
// expensive first.
func (r *ProductRepository) GetExpensiveProducts(ctx context.Context, minPrice float64) ([]Product, error) {
	products, err := r.Find(ctx, repository.Gt("price", minPrice))
	if err != nil {
		return nil, err
	}
	return collection.SortBy(products, "Price", true)
}
