package services

import "errors"

// Analysis service errors
var (
	// ErrNoInput is returned when a request names no studied file
	ErrNoInput = errors.New("no input file")

	// ErrNoMatchingBars is the reason attached to sections skipped because
	// the filters kept no bars
	ErrNoMatchingBars = errors.New("no bars matched the filters")

	// ErrDailyResolution is the reason attached to intraday sections when
	// the studied file holds daily bars
	ErrDailyResolution = errors.New("requires minute bars")
)
