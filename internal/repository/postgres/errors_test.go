package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.StoreErrorKind
	}{
		{
			name: "нарушение уникальности",
			err:  &pgconn.PgError{Code: "23505"},
			want: domain.StoreErrorConstraint,
		},
		{
			name: "нарушение check-ограничения",
			err:  &pgconn.PgError{Code: "23514"},
			want: domain.StoreErrorConstraint,
		},
		{
			name: "сериализационный конфликт",
			err:  &pgconn.PgError{Code: "40001"},
			want: domain.StoreErrorTransient,
		},
		{
			name: "ошибка соединения",
			err:  &pgconn.PgError{Code: "08006"},
			want: domain.StoreErrorTransient,
		},
		{
			name: "разорванное соединение драйвера",
			err:  driver.ErrBadConn,
			want: domain.StoreErrorTransient,
		},
		{
			name: "истек контекст",
			err:  context.DeadlineExceeded,
			want: domain.StoreErrorTransient,
		},
		{
			name: "строка не найдена",
			err:  domain.ErrRowNotFound,
			want: domain.StoreErrorNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := classifyError("update member", tt.err)

			var storeErr *domain.StoreError
			assert.True(t, errors.As(err, &storeErr))
			assert.Equal(t, tt.want, storeErr.Kind)
			assert.Equal(t, "update member", storeErr.Op)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("nil остается nil", func(t *testing.T) {
		assert.NoError(t, classifyError("fetch members", nil))
	})
}
