package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ApiError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var (
	ErrBadRequest       = func(detail string) *ApiError { return New(http.StatusBadRequest, "Bad Request", detail) }
	ErrMethodNotAllowed = func(detail string) *ApiError { return New(http.StatusMethodNotAllowed, "Method Not Allowed", detail) }
	ErrInternalServer   = func(detail string) *ApiError {
		return New(http.StatusInternalServerError, "Internal Server Error", detail)
	}
	ErrBadGateway = func(detail string) *ApiError {
		return New(http.StatusBadGateway, "Bad Gateway", detail)
	}
	ErrServiceUnavailable = func(detail string) *ApiError {
		return New(http.StatusServiceUnavailable, "Service Unavailable", detail)
	}
	ErrPayloadTooLarge = func(detail string) *ApiError {
		return New(http.StatusRequestEntityTooLarge, "Payload Too Large", detail)
	}
	ErrUnsupportedMedia = func(detail string) *ApiError {
		return New(http.StatusUnsupportedMediaType, "Unsupported Media Type", detail)
	}
	ErrUnprocessable = func(detail string) *ApiError {
		return New(http.StatusUnprocessableEntity, "Unprocessable Entity", detail)
	}
	ErrTooManyRequests = func(detail string) *ApiError {
		return New(http.StatusTooManyRequests, "Too Many Requests", detail)
	}
)

func New(code int, message, detail string) *ApiError {
	return &ApiError{
		Code:    code,
		Message: message,
		Detail:  detail,
	}
}

func (e *ApiError) WithRequestID(requestID string) *ApiError {
	e.RequestID = requestID
	return e
}

func (e *ApiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *ApiError) StatusCode() int {
	return e.Code
}

// As unwraps err into an *ApiError, falling back to a 500 that hides the cause.
func As(err error) *ApiError {
	var apiErr *ApiError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternalServer("unexpected error")
}
