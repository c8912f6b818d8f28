package dialect

import "errors"

// Sentinel kinds for dialect-module errors.
var (
	ErrSignNotFound = errors.New("sign not found in dialect module")
)
