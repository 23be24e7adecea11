package ranking

import "errors"

var (
	// ErrExecution wraps every failure of Execute other than a timeout.
	ErrExecution = errors.New("execution error")
	// ErrStoreUnavailable is returned by stores that cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrMalformedResult is a tuple missing required columns or carrying
	// values of the wrong type.
	ErrMalformedResult = errors.New("malformed result")
)
