package feedback

import "errors"

// Sentinel kinds for feedback composition errors.
var (
	ErrCatalogIncomplete   = errors.New("feedback catalog incomplete")
	ErrUnsupportedLanguage = errors.New("unsupported feedback language")
)
