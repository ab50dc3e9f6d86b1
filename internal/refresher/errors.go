package refresher

import "fmt"

// FetchError reports a transport failure or a non-success HTTP status.
type FetchError struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return "fetch status: " + e.Err.Error()
	}
	return fmt.Sprintf("fetch status: unexpected response status %d", e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not a valid status snapshot.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse status: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
