package gfx

import "github.com/cockroachdb/errors"

// Failure kinds. Errors returned from this package are marked with one of
// these and can be tested with errors.Is.
var (
	// ErrEnvironment: the machine cannot run the engine (no enumerable
	// capabilities, no suitable GPU, no queue family, no depth format).
	ErrEnvironment = errors.New("gfx: unsupported environment")
	// ErrCreation: the GPU API refused to create an object.
	ErrCreation = errors.New("gfx: object creation failed")
	// ErrPrecondition: the caller broke an API contract.
	ErrPrecondition = errors.New("gfx: precondition violated")
)

func environmentErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrEnvironment)
}

func preconditionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrPrecondition)
}

// creationError wraps a failed create call with the component and the
// action that failed.
func creationError(err error, format string, args ...interface{}) error {
	if errors.Is(err, ErrEnvironment) || errors.Is(err, ErrPrecondition) {
		return errors.Wrapf(err, format, args...)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrCreation)
}
