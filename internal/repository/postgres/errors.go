package postgres

import (
	"errors"
	"strings"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// classifyError переводит ошибку драйвера в domain.StoreError
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrRowNotFound) {
		return domain.NewStoreError(domain.StoreErrorNotFound, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && !isTransientCode(pgErr.Code) {
		return domain.NewStoreError(domain.StoreErrorConstraint, op, err)
	}

	// сеть, таймауты, driver.ErrBadConn и перезапуск сервера
	return domain.NewStoreError(domain.StoreErrorTransient, op, err)
}

func isTransientCode(code string) bool {
	switch code {
	case "40001", "40P01", "57P01", "57P02", "57P03", "53300":
		return true
	}
	return strings.HasPrefix(code, "08")
}
