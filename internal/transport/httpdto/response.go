package httpdto

import (
	"errors"

	messenger_errors "coaching-messenger/pkg/errors"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// ErrorCode maps a service error to the code clients switch on.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, messenger_errors.ErrInvalidInput):
		return "INVALID_REQUEST"
	case errors.Is(err, messenger_errors.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, messenger_errors.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, messenger_errors.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, messenger_errors.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, messenger_errors.ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, messenger_errors.ErrTransient):
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// ErrorMessage hides the text of errors outside the known taxonomy.
func ErrorMessage(err error) string {
	if messenger_errors.Known(err) {
		return err.Error()
	}
	return "internal error"
}
