package repository

import (
	"context"
	"testing"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	assert.Nil(t, mapPgError(nil))

	err := mapPgError(&pgconn.PgError{Code: SerializationFailureCode})
	assert.True(t, errors.Is(err, domain.ErrSerializationFailure))
	assert.True(t, domain.IsRetryable(err))

	err = mapPgError(errors.Wrap(&pgconn.PgError{Code: DeadlockDetectedCode}, "update"))
	assert.True(t, errors.Is(err, domain.ErrSerializationFailure))

	err = mapPgError(&pgconn.PgError{Code: UniqueViolationCode})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapPgError(plain))
}

func TestNotFound(t *testing.T) {
	assert.Equal(t, domain.ErrHoldNotFound, notFound(pgx.ErrNoRows, domain.ErrHoldNotFound))
	assert.True(t, errors.Is(notFound(pgx.ErrNoRows, domain.ErrBookingNotFound), domain.ErrNotFound))

	err := notFound(&pgconn.PgError{Code: UniqueViolationCode}, domain.ErrHoldNotFound)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestAfterCommit(t *testing.T) {
	var ran int
	AfterCommit(context.Background(), func(context.Context) { ran++ })
	assert.Equal(t, 1, ran, "runs immediately outside a transaction")

	ctx, committed := WithCommitHooks(context.Background())
	AfterCommit(ctx, func(context.Context) { ran++ })
	AfterCommit(ctx, func(context.Context) { ran++ })
	assert.Equal(t, 1, ran)

	committed(context.Background())
	assert.Equal(t, 3, ran)
}
