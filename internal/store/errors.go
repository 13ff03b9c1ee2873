package store

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrBuildingQuery  = errors.New("error building query")
	ErrExecutingQuery = errors.New("error executing query")
	ErrScanningRow    = errors.New("error scanning row")
	ErrScanningRows   = errors.New("error iterating rows")
	ErrSealingRecord  = errors.New("error encrypting record fields")
	ErrInvalidID      = errors.New("invalid record id")

	ErrBeginningTransaction  = errors.New("error beginning transaction")
	ErrCommittingTransaction = errors.New("error committing transaction")
)
