package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/wanderkit/wanderkit/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
		assert.True(t, pg.IsNotFoundError(fmt.Errorf("query user: %w", pgx.ErrNoRows)))
		assert.False(t, pg.IsNotFoundError(nil))
		assert.False(t, pg.IsNotFoundError(errors.New("boom")))
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()

		dup := &pgconn.PgError{Code: "23505"}
		assert.True(t, pg.IsDuplicateKeyError(dup))
		assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", dup)))
		assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
		assert.False(t, pg.IsDuplicateKeyError(nil))
	})

	t.Run("foreign key violation", func(t *testing.T) {
		t.Parallel()

		fk := &pgconn.PgError{Code: "23503"}
		assert.True(t, pg.IsForeignKeyViolationError(fk))
		assert.True(t, pg.IsForeignKeyViolationError(fmt.Errorf("insert: %w", fk)))
		assert.False(t, pg.IsForeignKeyViolationError(&pgconn.PgError{Code: "23505"}))
		assert.False(t, pg.IsForeignKeyViolationError(nil))
	})
}
