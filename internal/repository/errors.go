package repository

import (
	"errors"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"gorm.io/gorm"
)

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Wrap(apperror.KindNotFound, op, apperror.ErrNotFound, "record not found")
	}
	return apperror.Wrap(apperror.KindInternal, op, err, "database error")
}
