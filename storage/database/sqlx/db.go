package sqlxrepos

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidTextRepr     = "22P02" // eg. malformed uuid
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// notFound maps lookups that cannot match any row to errNotFound.
func notFound(err, errNotFound error) error {
	if errors.Is(err, sql.ErrNoRows) || pqCode(err) == invalidTextRepr {
		return errNotFound
	}
	return err
}

type execResult interface {
	RowsAffected() (int64, error)
}

// affectedOne turns statements that matched no row into errNotFound.
func affectedOne(res execResult, err, errNotFound error, action string) error {
	if err != nil {
		if pqCode(err) == invalidTextRepr {
			return errNotFound
		}
		return errors.Wrap(err, action)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, action)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}
