package gormrepo_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/gormrepo"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT * FROM products", 3 }

	t.Run("errors are logged", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := gormrepo.NewLogger(zerolog.New(buf), 0)
		l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
		assert.Contains(t, buf.String(), "query failed")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("not found is quiet", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := gormrepo.NewLogger(zerolog.New(buf), 0)
		l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("slow queries warn", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := gormrepo.NewLogger(zerolog.New(buf), time.Millisecond)
		l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
		assert.Contains(t, buf.String(), "slow query")
	})

	t.Run("info traces statements", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := gormrepo.NewLogger(zerolog.New(buf), 0).LogMode(logger.Info)
		l.Trace(ctx, time.Now(), stmt, nil)
		assert.Contains(t, buf.String(), "SELECT * FROM products")
	})

	t.Run("silent", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := gormrepo.NewLogger(zerolog.New(buf), 0).LogMode(logger.Silent)
		l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
		l.Error(ctx, "boom %d", 1)
		assert.Empty(t, buf.String())
	})
}
