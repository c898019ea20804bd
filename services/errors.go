package services

import "errors"

var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidFlag   = errors.New("invalid availability flag")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidPeriod = errors.New("invalid period")
)
