package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// metadataErr classifies a repository error. Domain outcomes (missing row,
// constraint) pass through; everything else is a storage failure.
func metadataErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrConstraintViolation) ||
		errors.Is(err, common.ErrStorageIO) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrStorageIO, op, err)
}

func blobErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStorageIO, op, err)
}
