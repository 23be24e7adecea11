package query

import "errors"

// ErrInvalidQuery is returned by Validate and Builder.Build.
var ErrInvalidQuery = errors.New("invalid query")
