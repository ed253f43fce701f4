package service

import (
	"fmt"

	"github.com/and161185/nutrikeeper/internal/errs"
)

// storageErr passes domain errors through and marks everything else as a
// storage failure, keeping the cause in the chain.
func storageErr(op string, err error) error {
	if err == nil || errs.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, errs.ErrStorage, err)
}
