package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Feed errors
	ErrFeedItemNotFound = fmt.Errorf("feed item not found")
	ErrFeedEmpty        = fmt.Errorf("feed is empty")
	ErrIndexOutOfRange  = fmt.Errorf("feed index out of range")

	// Media errors
	ErrFetchFailed = fmt.Errorf("media fetch failed")
	ErrTimeout     = fmt.Errorf("operation timed out")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
