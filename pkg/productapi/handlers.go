package productapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/collection"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
)

// sortFields maps the sort names clients use to the stored field and the
// Go field of models.Product.
var sortFields = map[string]struct{ column, field string }{
	"name":       {"name", "Name"},
	"price":      {"price", "Price"},
	"created_at": {"created_at", "CreatedAt"},
	"updated_at": {"updated_at", "UpdatedAt"},
}

type listQuery struct {
	paged    bool
	page     int
	size     int
	sort     string
	desc     bool
	minPrice *float64
}

func parseListQuery(r *http.Request) (listQuery, error) {
	q := r.URL.Query()
	lq := listQuery{page: 1, size: 20}

	var err error
	if v := q.Get("page"); v != "" {
		lq.paged = true
		if lq.page, err = strconv.Atoi(v); err != nil {
			return lq, errors.New("invalid page")
		}
	}
	if v := q.Get("size"); v != "" {
		lq.paged = true
		if lq.size, err = strconv.Atoi(v); err != nil {
			return lq, errors.New("invalid size")
		}
	}
	if lq.sort = q.Get("sort"); lq.sort != "" {
		if _, ok := sortFields[lq.sort]; !ok {
			return lq, errors.New("invalid sort field")
		}
	}
	if v := q.Get("desc"); v != "" {
		if lq.desc, err = strconv.ParseBool(v); err != nil {
			return lq, errors.New("invalid desc")
		}
	}
	if v := q.Get("min_price"); v != "" {
		minPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return lq, errors.New("invalid min_price")
		}
		lq.minPrice = &minPrice
	}
	return lq, nil
}

// handleListProducts lists products. Plain pages and plain sorts are pushed
// down to the store; combinations with a price filter are filtered by the
// store and then sorted and paged in memory.
func (a *App) handleListProducts(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	switch {
	case lq.paged && lq.sort == "" && lq.minPrice == nil:
		items, err := a.products.GetPaged(ctx, lq.page, lq.size)
		if err != nil {
			a.respondStoreError(w, r, err)
			return
		}
		total, err := a.products.Count(ctx, nil)
		if err != nil {
			a.respondStoreError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, collection.NewPage(items, lq.page, lq.size, total))
		return

	case !lq.paged && lq.sort != "" && lq.minPrice == nil:
		items, err := a.products.GetSorted(ctx, sortFields[lq.sort].column, lq.desc)
		if err != nil {
			a.respondStoreError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, items)
		return
	}

	var filter repository.Filter
	if lq.minPrice != nil {
		filter = repository.Gte("price", *lq.minPrice)
	}
	items, err := a.products.Find(ctx, filter)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	if lq.sort != "" {
		if items, err = collection.SortBy(items, sortFields[lq.sort].field, lq.desc); err != nil {
			a.respondStoreError(w, r, err)
			return
		}
	}
	if !lq.paged {
		respondJSON(w, http.StatusOK, items)
		return
	}
	page, err := collection.Paginate(items, lq.page, lq.size)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (a *App) handleExpensiveProducts(w http.ResponseWriter, r *http.Request) {
	minPrice, err := strconv.ParseFloat(r.URL.Query().Get("min"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid min price")
		return
	}

	products, err := a.products.GetExpensiveProducts(r.Context(), minPrice)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (a *App) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProductID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := a.products.GetByID(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (a *App) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := product.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	product.Stamp(a.now())

	if err := a.products.Add(r.Context(), &product); err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (a *App) handleCreateProducts(w http.ResponseWriter, r *http.Request) {
	var products []*models.Product
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(products) == 0 {
		respondError(w, http.StatusBadRequest, "No products given")
		return
	}
	now := a.now()
	for _, p := range products {
		if p == nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if err := p.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Stamp(now)
	}

	if err := a.products.AddRange(r.Context(), products); err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, products)
}

func (a *App) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProductID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := product.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	existing, err := a.products.GetByID(ctx, id)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	product.ID = id
	product.CreatedAt = existing.CreatedAt
	product.Stamp(a.now())
	if err := a.products.Update(ctx, &product); err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (a *App) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProductID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx := r.Context()
	existing, err := a.products.GetByID(ctx, id)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err := a.products.DeleteByID(ctx, id); err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"read_only": a.IsReadOnly(),
	})
}

// statusFor maps store and validation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrReadOnly):
		return http.StatusServiceUnavailable
	case errors.Is(err, repository.ErrInvalidPage),
		errors.Is(err, repository.ErrInvalidField),
		errors.Is(err, repository.ErrInvalidFilter),
		errors.Is(err, collection.ErrUnknownField),
		errors.Is(err, collection.ErrUnsortableField),
		errors.Is(err, models.ErrInvalidProduct):
		return http.StatusBadRequest
	case repository.IsConstraintViolation(err), repository.IsConcurrency(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *App) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	respondError(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
