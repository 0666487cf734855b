package analyzer

import (
	"errors"
	"fmt"
)

// ErrNoLambdaChannel is returned when no column name contains "lambda".
// The classifier cannot derive an air-fuel ratio without at least one probe.
var ErrNoLambdaChannel = errors.New("no lambda channel detected in file")

// MissingColumnError reports a required channel absent from the input table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Column)
}
