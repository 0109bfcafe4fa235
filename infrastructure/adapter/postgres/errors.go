package postgres

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

const (
	pgErrUniqueViolation     pq.ErrorCode = "23505"
	pgErrForeignKeyViolation pq.ErrorCode = "23503"
)

func pgError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pqErr, ok := pgError(err)
	return ok && pqErr.Code == pgErrUniqueViolation
}

// foreignKeyColumn reports which referenced column a FK violation is about,
// going by the constraint name (e.g. user_roles_service_id_fkey).
func foreignKeyColumn(err error) (string, bool) {
	pqErr, ok := pgError(err)
	if !ok || pqErr.Code != pgErrForeignKeyViolation {
		return "", false
	}
	switch {
	case strings.Contains(pqErr.Constraint, "service_id"):
		return "service_id", true
	case strings.Contains(pqErr.Constraint, "user_id"):
		return "user_id", true
	default:
		return pqErr.Constraint, true
	}
}
