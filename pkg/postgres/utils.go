package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ToPgErr flattens a server-side error into a readable one.
func ToPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf(
			"postgres error: %s, detail: %s, where: %s, code: %s: %w",
			pgErr.Message,
			pgErr.Detail,
			pgErr.Where,
			pgErr.Code,
			err,
		)
	}
	return err
}
