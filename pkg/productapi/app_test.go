package productapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/collection"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/productapi"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/gormrepo"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/metrics"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *gormrepo.Repository[models.Product, models.ProductID] {
	t.Helper()

	cfg := gormrepo.NewConfig()
	cfg.Driver = gormrepo.DriverSQLite
	cfg.DSN = ":memory:"
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 0

	db, err := gormrepo.Open(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gormrepo.Close(db) })
	require.NoError(t, gormrepo.Migrate(context.Background(), db, &models.Product{}))

	store, err := gormrepo.New[models.Product, models.ProductID](db)
	require.NoError(t, err)
	return store
}

func newServer(t *testing.T, opts ...productapi.Option) (*productapi.App, *httptest.Server) {
	t.Helper()

	opts = append([]productapi.Option{productapi.WithClock(func() time.Time { return testNow })}, opts...)
	app := productapi.New(newStore(t), opts...)
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return app, srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func seed(t *testing.T, base string, prices ...float64) []models.Product {
	t.Helper()

	batch := make([]models.Product, len(prices))
	for i, p := range prices {
		batch[i] = models.Product{Name: fmt.Sprintf("product-%d", i), Price: p}
	}
	resp := do(t, http.MethodPost, base+"/api/products/batch", batch)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[[]models.Product](t, resp)
}

func TestProductCRUD(t *testing.T) {
	_, srv := newServer(t)

	var created models.Product
	t.Run("create", func(t *testing.T) {
		resp := do(t, http.MethodPost, srv.URL+"/api/products", models.Product{Name: "lamp", Price: 25})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created = decode[models.Product](t, resp)
		assert.False(t, created.ID.IsZero())
		assert.Equal(t, testNow, created.CreatedAt.UTC())
	})

	t.Run("get", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/api/products/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[models.Product](t, resp)
		assert.Equal(t, "lamp", got.Name)
		assert.Equal(t, 25.0, got.Price)
	})

	t.Run("update", func(t *testing.T) {
		resp := do(t, http.MethodPut, srv.URL+"/api/products/"+created.ID.String(), models.Product{Name: "desk lamp", Price: 30})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[models.Product](t, resp)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "desk lamp", got.Name)
	})

	t.Run("delete", func(t *testing.T) {
		resp := do(t, http.MethodDelete, srv.URL+"/api/products/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = do(t, http.MethodGet, srv.URL+"/api/products/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestProductErrors(t *testing.T) {
	_, srv := newServer(t)
	missing := models.NewProductID().String()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid id", http.MethodGet, "/api/products/not-a-uuid", nil, http.StatusBadRequest},
		{"missing product", http.MethodGet, "/api/products/" + missing, nil, http.StatusNotFound},
		{"update missing", http.MethodPut, "/api/products/" + missing, models.Product{Name: "x"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/products/" + missing, nil, http.StatusNotFound},
		{"blank name", http.MethodPost, "/api/products", models.Product{Name: " "}, http.StatusBadRequest},
		{"negative price", http.MethodPost, "/api/products", models.Product{Name: "x", Price: -1}, http.StatusBadRequest},
		{"empty batch", http.MethodPost, "/api/products/batch", []models.Product{}, http.StatusBadRequest},
		{"bad page", http.MethodGet, "/api/products?page=0", nil, http.StatusBadRequest},
		{"page offset overflow", http.MethodGet, "/api/products?page=3&size=4611686018427387904", nil, http.StatusBadRequest},
		{"filtered page offset overflow", http.MethodGet, "/api/products?min_price=1&page=3&size=4611686018427387904", nil, http.StatusBadRequest},
		{"bad sort", http.MethodGet, "/api/products?sort=color", nil, http.StatusBadRequest},
		{"bad min", http.MethodGet, "/api/products/expensive?min=abc", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestListProducts(t *testing.T) {
	_, srv := newServer(t)
	seed(t, srv.URL, 10, 40, 20, 30, 50)

	t.Run("all", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/api/products", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]models.Product](t, resp), 5)
	})

	t.Run("sorted", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/api/products?sort=price&desc=true", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := collection.Select(decode[[]models.Product](t, resp), func(p models.Product) float64 { return p.Price })
		assert.Equal(t, []float64{50, 40, 30, 20, 10}, got)
	})

	t.Run("paged", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/api/products?page=2&size=2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[collection.Page[models.Product]](t, resp)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(5), page.TotalCount)
		assert.Equal(t, 3, page.TotalPages)
		assert.True(t, page.HasPrevious)
		assert.True(t, page.HasNext)
	})

	t.Run("filtered sorted and paged", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/api/products?min_price=20&sort=price&page=1&size=3", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[collection.Page[models.Product]](t, resp)
		got := collection.Select(page.Items, func(p models.Product) float64 { return p.Price })
		assert.Equal(t, []float64{20, 30, 40}, got)
		assert.Equal(t, int64(4), page.TotalCount)
		assert.True(t, page.HasNext)
	})

	t.Run("expensive", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/api/products/expensive?min=25", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := collection.Select(decode[[]models.Product](t, resp), func(p models.Product) float64 { return p.Price })
		assert.Equal(t, []float64{50, 40, 30}, got)
	})
}

func TestReadOnlyMode(t *testing.T) {
	app, srv := newServer(t, productapi.WithReadOnly(true))
	assert.True(t, app.IsReadOnly())

	resp := do(t, http.MethodPost, srv.URL+"/api/products", models.Product{Name: "lamp", Price: 1})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/healthz", nil)
	health := decode[map[string]any](t, resp)
	assert.Equal(t, true, health["read_only"])

	app.SetReadOnly(false)
	resp = do(t, http.MethodPost, srv.URL+"/api/products", models.Product{Name: "lamp", Price: 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestMetricsAndCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg, "repokit")
	require.NoError(t, err)
	_, srv := newServer(t, productapi.WithMetrics(c, reg), productapi.WithCache(time.Minute))

	product := seed(t, srv.URL, 10)[0]
	for range 3 {
		resp := do(t, http.MethodGet, srv.URL+"/api/products/"+product.ID.String(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.Contains(out, `repokit_repository_operations_total{entity="Product",operation="AddRange"} 1`), out)
	assert.True(t, strings.Contains(out, `repokit_repository_operations_total{entity="Product",operation="GetByID"} 1`), out)
}

func TestMetricsRouteDisabled(t *testing.T) {
	_, srv := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
