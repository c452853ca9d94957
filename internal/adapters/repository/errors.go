package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrMarginsMissing = errors.New("margins file not found")
	ErrMalformedCSV   = errors.New("malformed csv")
	ErrWatcherRunning = errors.New("watcher already running")
)
