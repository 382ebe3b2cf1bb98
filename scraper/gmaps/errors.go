package gmaps

import "fmt"

// SessionInitError means the browser process could not start. Fatal to
// the run.
type SessionInitError struct {
	Err error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("browser session init failed: %v", e.Err)
}

func (e *SessionInitError) Unwrap() error { return e.Err }

// NavigationError means a page failed to load after exhausting the
// retry budget. Fatal to the run.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// SelectorTimeoutError means an expected DOM structure never appeared.
// Fatal only at required checkpoints (initial results detection);
// recovered locally everywhere else.
type SelectorTimeoutError struct {
	Selector string
}

func (e *SelectorTimeoutError) Error() string {
	return fmt.Sprintf("selector %q never appeared", e.Selector)
}
