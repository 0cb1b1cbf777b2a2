package errors

import "net/http"

// Error is an authentication/authorization failure with a stable machine
// code and the HTTP status it maps to. The predeclared values below are
// compared with errors.Is, so callers branch on identity, never on the
// message text.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Authentication failures. All map to 401. The login message is the same
// for unknown email, wrong password, and deactivated account so the
// endpoint cannot be used to enumerate accounts.
var (
	ErrInvalidCredentials = &Error{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidRefreshToken = &Error{
		Code:    "INVALID_REFRESH_TOKEN",
		Message: "invalid or expired refresh token",
		Status:  http.StatusUnauthorized,
	}
	ErrTokenExpired = &Error{
		Code:    "TOKEN_EXPIRED",
		Message: "access token expired",
		Status:  http.StatusUnauthorized,
	}
	ErrTokenInvalid = &Error{
		Code:    "TOKEN_INVALID",
		Message: "invalid access token",
		Status:  http.StatusUnauthorized,
	}
	ErrMissingToken = &Error{
		Code:    "MISSING_TOKEN",
		Message: "authentication required",
		Status:  http.StatusUnauthorized,
	}
	ErrSubjectNotFound = &Error{
		Code:    "SUBJECT_NOT_FOUND",
		Message: "account no longer exists",
		Status:  http.StatusUnauthorized,
	}
	ErrSubjectDeactivated = &Error{
		Code:    "SUBJECT_DEACTIVATED",
		Message: "account is deactivated",
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidCurrentPassword = &Error{
		Code:    "INVALID_CURRENT_PASSWORD",
		Message: "current password is incorrect",
		Status:  http.StatusUnauthorized,
	}
)

// Authorization failures: identity is already established, so the denial
// reason is safe to disclose.
var (
	ErrNotAuthenticated = &Error{
		Code:    "NOT_AUTHENTICATED",
		Message: "no authenticated identity on request",
		Status:  http.StatusUnauthorized,
	}
	ErrInsufficientPermissions = &Error{
		Code:    "INSUFFICIENT_PERMISSIONS",
		Message: "role does not permit this action",
		Status:  http.StatusForbidden,
	}
	ErrDepartmentAccessDenied = &Error{
		Code:    "DEPARTMENT_ACCESS_DENIED",
		Message: "resource belongs to another department",
		Status:  http.StatusForbidden,
	}
	ErrResourceAccessDenied = &Error{
		Code:    "RESOURCE_ACCESS_DENIED",
		Message: "resource belongs to another user",
		Status:  http.StatusForbidden,
	}
)

var (
	ErrEmailAlreadyInUse = &Error{
		Code:    "EMAIL_IN_USE",
		Message: "email already in use",
		Status:  http.StatusConflict,
	}
	ErrRateLimitExceeded = &Error{
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "too many attempts, try again later",
		Status:  http.StatusTooManyRequests,
	}
)
