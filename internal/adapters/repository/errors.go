package repository

import (
	"errors"

	"github.com/okian/clutch/internal/domain/ranking"
)

// Sentinel kinds for store errors. The first two are the ranker's, so
// errors.Is works across the boundary.
var (
	ErrStoreUnavailable = ranking.ErrStoreUnavailable
	ErrMalformedResult  = ranking.ErrMalformedResult
	ErrUnknownProperty  = errors.New("unknown property")
)
