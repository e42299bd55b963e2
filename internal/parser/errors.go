package parser

import (
	"errors"
	"fmt"
)

var ErrSponsoredListing = errors.New("sponsored or placeholder listing")

// ExtractionError reports markup that a strategy requires but did not find.
type ExtractionError struct {
	Site  string
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: unable to extract %s", e.Site, e.Field)
}

// MalformedIdentifierError reports an id or link that did not match the
// pattern used to derive an identifier from it.
type MalformedIdentifierError struct {
	Input   string
	Pattern string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q (expected %s)", e.Input, e.Pattern)
}

func IsExtractionError(err error) bool {
	var target *ExtractionError
	return errors.As(err, &target)
}
