package domain

import "errors"

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDailyLimitReached   = errors.New("daily limit reached")
	ErrPremiumRequired     = errors.New("premium subscription required")
	ErrInvalidAmount       = errors.New("credit amount must be positive")
	ErrNotLoggedIn         = errors.New("not logged in")
	ErrGenerationInFlight  = errors.New("generation already in flight")
	ErrPaymentDeclined     = errors.New("payment declined")
)
