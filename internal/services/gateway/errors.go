package gateway

import "fmt"

type ErrorKind string

const (
	// NetworkError means the request never produced an HTTP response
	NetworkError ErrorKind = "network"
	// ServerError means the endpoint answered with a non-2xx status or an unreadable body
	ServerError ErrorKind = "server"
)

// DefaultFailureReason is shown when neither the body nor the transport says anything useful
const DefaultFailureReason = "OpenAI 요청 중 문제가 발생했습니다. 다시 시도해주세요."

// RequestError is returned by RequestCompletion. Reason is human readable
// and safe to show in the transcript.
type RequestError struct {
	Kind   ErrorKind
	Status int
	Reason string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Reason)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Reason extracts the display text of err
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if reqErr, ok := err.(*RequestError); ok {
		return reqErr.Reason
	}
	return err.Error()
}
