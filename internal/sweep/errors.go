package sweep

import "errors"

var (
	ErrUnhealthy    = errors.New("viewer is not healthy")
	ErrUnexpected   = errors.New("unexpected response")
	ErrChecksFailed = errors.New("sweep checks failed")
)
