// Package errors provides structured error handling with error codes for simple-verify.
//
// Errors carry a code, a human-readable message and an optional wrapped cause.
// Two errors with the same code compare equal under errors.Is, so packages can
// export coded sentinels and still attach the underlying cause:
//
//	var ErrInvalidToken = errors.New(errors.ErrCodeTokenInvalid, "invalid verify account key")
//
//	err := errors.Wrap(dbErr, errors.ErrCodePersistenceFailed, "lookup verification key")
//	stderrors.Is(err, ErrPersistenceFailure) // true
//
// HTTP handlers translate codes with MapErrorCodeToHTTPStatus.
package errors
