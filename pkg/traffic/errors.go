package traffic

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrTokenMissing = errors.New("empty/missing token")
	ErrInvalidSize  = errors.New("transfer size must be positive")
)

// ResponseError is returned when the server answered with a non-success status.
type ResponseError struct {
	Status string
	Code   int
}

// Error does not include the body, servers may echo the payload
func (e *ResponseError) Error() string {
	return fmt.Sprintf("code: %d status: %s", e.Code, e.Status)
}

func (e *ResponseError) Is(target error) bool {
	_, ok := target.(*ResponseError)
	return ok
}

// errorFromResponse prefers the status of a received response over the transport error
func errorFromResponse(err error, resp *req.Response) error {
	if resp != nil && resp.Response != nil && !resp.IsSuccessState() {
		return &ResponseError{
			Code:   resp.StatusCode,
			Status: resp.Status,
		}
	}

	return err
}
