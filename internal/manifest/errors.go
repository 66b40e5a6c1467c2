package manifest

import "fmt"

// FetchError indicates the manifest could not be retrieved from the server.
// Fatal for the agent: without a manifest there is no valid action to take.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("manifest fetch from %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates the manifest document is malformed or incomplete.
// A single bad host entry invalidates the whole manifest.
type ParseError struct {
	Host string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("manifest entry for host %q invalid: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("manifest invalid: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
