package service

import "errors"

var (
	ErrRateLimited          = errors.New("too many codes requested, try again later")
	ErrCredentialNotFound   = errors.New("invalid or already used code")
	ErrCredentialExpired    = errors.New("code has expired")
	ErrTicketInvalid        = errors.New("verification ticket is invalid or already used")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrChannelFailed        = errors.New("delivery channel failed")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrIdentityTaken        = errors.New("an account with this email already exists")
	ErrInvalidPurpose       = errors.New("invalid credential purpose")
	ErrInvalidIdentity      = errors.New("invalid identity")
	ErrInvalidKind          = errors.New("invalid notification kind")
)
