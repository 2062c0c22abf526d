package client

import "fmt"

// Operation names used in error messages and log fields.
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RequestError is returned when the API answers with a non-success status. The status code and
// the response body are kept so that callers can tell a 404 from a 500.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to %s persons (status %d)", e.Op, e.StatusCode)
}

// message is the generic error text for an operation, used when the transport fails.
func message(op string) string {
	return "failed to " + op + " persons"
}
