// Package apierr holds the error taxonomy shared by the gateway services and
// the transports. Every error that reaches a client is an *APIError whose
// Code is the HTTP status and whose Message goes into the {"msg": ...} body.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeBadRequest ErrorType = "bad_request"
	ErrorTypeAuth       ErrorType = "authentication"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeTooLarge   ErrorType = "payload_too_large"
	ErrorTypeInternal   ErrorType = "internal"
)

const (
	MsgNoPermission = "No permissions over this object"
	MsgNoItem       = "No item satisfies your arguments"
)

type APIError struct {
	Type    ErrorType
	Message string
	Code    int
	err     error
}

func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func newError(t ErrorType, code int, msg string, err error) *APIError {
	return &APIError{Type: t, Message: msg, Code: code, err: err}
}

// NewValidationError is for malformed or missing request fields.
func NewValidationError(msg string, err error) *APIError {
	return newError(ErrorTypeValidation, http.StatusUnprocessableEntity, msg, err)
}

// NewBadRequestError is for well-formed requests that reference something
// unusable, like a sensor on a device the caller does not own.
func NewBadRequestError(msg string, err error) *APIError {
	return newError(ErrorTypeBadRequest, http.StatusBadRequest, msg, err)
}

func NewAuthError(msg string, err error) *APIError {
	return newError(ErrorTypeAuth, http.StatusUnauthorized, msg, err)
}

func NewPermissionError(msg string, err error) *APIError {
	if msg == "" {
		msg = MsgNoPermission
	}
	return newError(ErrorTypePermission, http.StatusForbidden, msg, err)
}

func NewNotFoundError(msg string, err error) *APIError {
	if msg == "" {
		msg = MsgNoItem
	}
	return newError(ErrorTypeNotFound, http.StatusNotFound, msg, err)
}

// NewConflictError reports a storage constraint failure. The message is the
// storage engine's own text.
func NewConflictError(err error) *APIError {
	return newError(ErrorTypeConflict, http.StatusInternalServerError, err.Error(), err)
}

func NewUpstreamError(msg string, err error) *APIError {
	return newError(ErrorTypeUpstream, http.StatusBadGateway, msg, err)
}

func NewPayloadTooLargeError(msg string, err error) *APIError {
	return newError(ErrorTypeTooLarge, http.StatusRequestEntityTooLarge, msg, err)
}

func NewInternalError(msg string, err error) *APIError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, msg, err)
}

// From returns err as an *APIError, wrapping anything unknown as internal.
func From(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternalError(err.Error(), err)
}

func is(err error, t ErrorType) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}

func IsNotFound(err error) bool   { return is(err, ErrorTypeNotFound) }
func IsPermission(err error) bool { return is(err, ErrorTypePermission) }
func IsValidation(err error) bool { return is(err, ErrorTypeValidation) }
func IsConflict(err error) bool   { return is(err, ErrorTypeConflict) }
func IsUpstream(err error) bool   { return is(err, ErrorTypeUpstream) }
