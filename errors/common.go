package errors

import "fmt"

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid request body", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return ValidationFailedErr(ve.Err())
}

func NotFoundErr(what, id string) error {
	return E(NotFound, fmt.Sprintf("%s %s not found", what, id), nil)
}

// ConflictErr returns a formated error for a stale write on a transaction
func ConflictErr(transactionID string, version int64) error {
	msg := fmt.Sprintf("transaction %s was modified concurrently (version %d)", transactionID, version)
	return E(Conflict, msg, nil)
}
