package service

import (
	"errors"

	"github.com/joshsssn/marketplace/internal/port"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)

func isDuplicate(err error) bool {
	return errors.Is(err, port.ErrDuplicateKey)
}
