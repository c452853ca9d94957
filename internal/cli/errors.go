package cli

import "errors"

var ErrUnknownYear = errors.New("year not in dataset")
