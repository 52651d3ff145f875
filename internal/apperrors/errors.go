package apperrors

import (
	"errors"
)

// Kind groups errors by the way they have to be reported to a client
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a well known application error
// Message is safe to show to the client
type Error struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }
func (e *Error) Kind() Kind     { return e.kind }

var (
	ErrEmailAlreadyUsed = New(KindConflict, "email already in use")
	ErrUserNotFound     = New(KindNotFound, "user not found")
	ErrUserInactive     = New(KindAuthentication, "user not found or inactive")
	ErrRoleAlreadySet   = New(KindConflict, "user role is already set and cannot be changed this way")

	// Same error for every password login failure
	ErrInvalidCredentials   = New(KindAuthentication, "invalid email or password")
	ErrTooManyLoginAttempts = New(KindTooManyRequests, "too many login attempts, try again later")

	ErrIdentityTokenRequired = New(KindValidation, "idToken is required")
	ErrIdentityTokenInvalid  = New(KindAuthentication, "invalid or expired identity token")

	ErrRefreshTokenRequired    = New(KindValidation, "refresh token is required")
	ErrRefreshTokenNotFound    = New(KindAuthentication, "refresh token not found")
	ErrRefreshTokenInvalidated = New(KindAuthentication, "refresh token has been invalidated")
	ErrRefreshTokenExpired     = New(KindAuthentication, "refresh token expired")

	ErrUnauthorized = New(KindAuthentication, "unauthorized")

	ErrCampaignNotFound = New(KindNotFound, "campaign not found")
	ErrNotBrand         = New(KindAuthorization, "only brands can manage campaigns")
	ErrNotCampaignOwner = New(KindAuthorization, "you can only modify your own campaigns")
	ErrCampaignActive   = New(KindConflict, "cannot delete an active campaign")
	ErrCampaignDates    = New(KindValidation, "end_date must be after start_date")
	ErrBudgetSortDenied = New(KindValidation, "sorting by budget is allowed only for your own campaigns")
)

// Return kind of the first known error in chain
// Unknown errors are internal ones
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// Return message that is safe to show to the client
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.kind != KindInternal {
		return e.message
	}
	return "internal server error"
}
