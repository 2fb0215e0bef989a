package persistence

import (
	"errors"
	"fmt"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// translateError maps driver and GORM errors onto domain errors.
// notFound is returned for gorm.ErrRecordNotFound.
func translateError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", shared.ErrAlreadyExists, err)
	case IsBackendCredentialError(err):
		return fmt.Errorf("%w: %v", integration.ErrBackendMisconfigured, err)
	default:
		return err
	}
}

// IsBackendCredentialError reports whether PostgreSQL rejected the service's own
// credentials (SQLSTATE class 28) or privileges (42501).
func IsBackendCredentialError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	code := pq.ErrorCode(pgErr.Code)
	return code.Class() == "28" || code.Name() == "insufficient_privilege"
}
