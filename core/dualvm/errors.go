package dualvm

import "errors"

// Stable error codes for the strategy layer, reported alongside test failures
// by the embedding harness.
const (
	CompilationMismatchErrCode        = -39001
	DuplicateBytecodeErrCode          = -39002
	DuplicateMockErrCode              = -39003
	IllegalMigrationTransitionErrCode = -39004
)

var (
	// ErrCompilationMismatch is returned when a bytecode blob or bytecode hash
	// observed during execution cannot be resolved against the dual-contract
	// registry and the caller required cross-VM identity.
	ErrCompilationMismatch = newStrategyError(errors.New("bytecode does not match any dual-compiled contract"), CompilationMismatchErrCode)

	// ErrDuplicateBytecode is reported at registry construction when two
	// entries would be ambiguous under prefix lookup.
	ErrDuplicateBytecode = newStrategyError(errors.New("dual-compiled contract bytecode collides with an existing entry"), DuplicateBytecodeErrCode)

	// ErrDuplicateMock is reported at registration for two mocks with an
	// identical (calldata, value) context on the same address.
	ErrDuplicateMock = newStrategyError(errors.New("mock already registered for this calldata and value"), DuplicateMockErrCode)

	// ErrIllegalMigrationTransition indicates a strategy-sequencing bug: the
	// one-shot startup migration was driven again after it completed.
	ErrIllegalMigrationTransition = newStrategyError(errors.New("startup migration already completed"), IllegalMigrationTransitionErrCode)
)

// strategyError carries a stable error code next to the wrapped cause.
type strategyError struct {
	error
	code int
}

// ErrorCode returns the stable code for a strategy-layer error.
func (e *strategyError) ErrorCode() int {
	return e.code
}

func (e *strategyError) Unwrap() error {
	return e.error
}

func newStrategyError(err error, code int) *strategyError {
	return &strategyError{
		error: err,
		code:  code,
	}
}
