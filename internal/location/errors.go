package location

import (
	"errors"
	"fmt"
)

// Resolution error kinds. Callers branch on these with errors.Is/errors.As.
var (
	// ErrInvalidInput marks out-of-range coordinates, malformed dates, or
	// unknown timezones. Fatal at the API boundary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means no candidate location matched the query.
	ErrNotFound = errors.New("location not found")

	// ErrNetwork marks a transport-level failure or timeout.
	ErrNetwork = errors.New("network error")

	// ErrServiceUnavailable marks a non-2xx reply from an external service.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse marks an unparseable reply from an external service.
	ErrInvalidResponse = errors.New("invalid response")
)

// AmbiguousError carries multiple plausible candidates. Silent guessing of
// locations is forbidden: the resolver never picks among candidates from
// different countries, it propagates them for the caller to disambiguate.
type AmbiguousError struct {
	Query   string
	Options []Candidate
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous location %q: %d candidates", e.Query, len(e.Options))
}

// AsAmbiguous extracts an AmbiguousError from an error chain.
func AsAmbiguous(err error) (*AmbiguousError, bool) {
	var amb *AmbiguousError
	if errors.As(err, &amb) {
		return amb, true
	}
	return nil, false
}
