package shape

import "fmt"

// MalformedResponseError reports that model output could not be coerced into
// a shape and the default instance was used instead.
type MalformedResponseError struct {
	Shape  string
	Raw    string
	Reason string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed response for shape %q: %s: %v", e.Shape, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed response for shape %q: %s", e.Shape, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}
