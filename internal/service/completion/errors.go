package completion

import "fmt"

// RemoteError reports a transport failure or a non-success response.
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "remote completion failed"
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a success response without reply text.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "No assistant response in API result"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
