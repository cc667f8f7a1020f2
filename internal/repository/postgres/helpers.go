package postgres

import (
	"database/sql"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

// requireAffected returns notFound when an UPDATE or DELETE matched no row
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
