package pixel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Code classifies a rejection reported by a reactor.
type Code int

const (
	CodeBadRequest Code = 400
	CodeForbidden  Code = 403
	CodeNotFound   Code = 404
	CodeConflict   Code = 409
	CodeInternal   Code = 500
)

func (c Code) String() string {
	switch c {
	case CodeBadRequest:
		return "Invalid request"
	case CodeForbidden:
		return "Access denied"
	case CodeNotFound:
		return "Resource not found"
	case CodeConflict:
		return "Resource already exists"
	case CodeInternal:
		return "Error during operation"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// Error is a pixel the backend ran and rejected.
type Error struct {
	Code       Code
	Message    string
	Expression string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

// NewError builds an Error with an explicit message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == code
}

// ErrUnauthorized is returned when the backend has no session for the client.
var ErrUnauthorized = errors.New("pixel: not logged in")

// StatusError is an unexpected HTTP status from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pixel: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("pixel: http status %d: %s", e.StatusCode, e.Body)
}

// errorPayload is the map form reactors use for structured errors.
type errorPayload struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// rejection turns the output of a failed pixel into an *Error. The output is
// either a plain message, a list of messages, or a {code, message} map.
func rejection(expression string, output json.RawMessage) *Error {
	e := &Error{Code: CodeInternal, Expression: expression}

	var text string
	if err := json.Unmarshal(output, &text); err == nil {
		e.Message = text
		return e
	}
	var payload errorPayload
	if err := json.Unmarshal(output, &payload); err == nil && (payload.Code != 0 || payload.Message != "") {
		if payload.Code != 0 {
			e.Code = payload.Code
		}
		e.Message = payload.Message
		return e
	}
	var list []json.RawMessage
	if err := json.Unmarshal(output, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, rejection(expression, item).Error())
		}
		e.Message = strings.Join(parts, "; ")
		return e
	}
	e.Message = strings.TrimSpace(string(output))
	return e
}
