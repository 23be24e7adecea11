package llm

import "errors"

var (
	// ErrServiceError reports a failed or empty completion from the provider.
	ErrServiceError = errors.New("language model service error")
	// ErrUnknownProvider is returned for a provider name with no defaults.
	ErrUnknownProvider = errors.New("unknown llm provider")
)
