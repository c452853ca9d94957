package viewstate

import "errors"

// ErrInvalidParam reports a malformed query parameter.
var ErrInvalidParam = errors.New("invalid query parameter")
