// Package apperrors defines the AppError type the device controller returns
// from its operations and the JSON error envelope the core's own HTTP routes
// write for it.
package apperrors

import (
	"errors"

	"github.com/sonoshub/control-plane/internal/soap"
)

// ErrorCode enumerates the taxonomy the control plane itself can surface.
// Product-level codes (scenes, routines, music, pairing) belong to the
// outer router and are out of scope here.
type ErrorCode string

const (
	ErrorCodeInternalError    ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError  ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorCodeSonosTimeout     ErrorCode = "SONOS_TIMEOUT"
	ErrorCodeSonosUnreachable ErrorCode = "SONOS_UNREACHABLE"
	ErrorCodeSonosRejected    ErrorCode = "SONOS_REJECTED"
	ErrorCodeDeviceNotFound   ErrorCode = "DEVICE_NOT_FOUND"
	ErrorCodeDeviceOffline    ErrorCode = "DEVICE_OFFLINE"
)

// ErrorType categorizes errors following Stripe API conventions, which the
// outer router also uses for its own envelopes.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrorTypeAPIError       ErrorType = "api_error"
	ErrorTypeAuthError      ErrorType = "authentication_error"
)

// StripeErrorBody is the Stripe-style error payload returned on the wire.
type StripeErrorBody struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// AppError is the base error type for HTTP responses from this service.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (err *AppError) Error() string {
	return err.Message
}

// StripeErrorBody renders the error in Stripe API format.
func (err *AppError) StripeErrorBody() StripeErrorBody {
	errType := ErrorTypeAPIError
	switch {
	case err.StatusCode == 401:
		errType = ErrorTypeAuthError
	case err.StatusCode >= 400 && err.StatusCode < 500:
		errType = ErrorTypeInvalidRequest
	}
	return StripeErrorBody{
		Type:    errType,
		Code:    string(err.Code),
		Message: err.Message,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode, Details: details}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, 400, details)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrorCodeUnauthorized, message, 401, nil)
}

func NewNotFoundError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeNotFound, message, 404, details)
}

func NewDeviceNotFoundError(roomOrID string) *AppError {
	return NewAppError(ErrorCodeDeviceNotFound, "player not found: "+roomOrID, 404, map[string]any{"player": roomOrID})
}

func NewDeviceOfflineError(roomOrID string) *AppError {
	return NewAppError(ErrorCodeDeviceOffline, "player offline: "+roomOrID, 503, map[string]any{"player": roomOrID})
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, 500, nil)
}

// FromSonosError classifies an error returned by internal/soap into the
// taxonomy spec.md §7 names, preserving the numeric UPnP fault code where
// one exists.
func FromSonosError(err error) *AppError {
	var rejected *soap.SonosRejectedError
	if errors.As(err, &rejected) {
		return NewAppError(ErrorCodeSonosRejected, rejected.Error(), 502, map[string]any{
			"upnpErrorCode": rejected.Code,
			"action":        rejected.Action,
		})
	}
	var timeout *soap.SonosTimeoutError
	if errors.As(err, &timeout) {
		return NewAppError(ErrorCodeSonosTimeout, timeout.Error(), 504, nil)
	}
	var unreachable *soap.SonosUnreachableError
	if errors.As(err, &unreachable) {
		return NewAppError(ErrorCodeSonosUnreachable, unreachable.Error(), 502, nil)
	}
	return NewInternalError(err.Error())
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("unknown error")
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(err.Error())
}
