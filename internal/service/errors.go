package service

import "errors"

// Domain errors returned by the services. Handlers map these onto HTTP
// status codes; anything else is treated as an internal failure.
var (
	ErrNoPackage          = errors.New("student has not selected a package")
	ErrUnknownPackage     = errors.New("unknown package code")
	ErrInvalidDays        = errors.New("invalid day selection for package")
	ErrNotAnUpgrade       = errors.New("target package is not more expensive than the current one")
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrNothingOutstanding = errors.New("package is already fully paid")
	ErrNotFullyPaid       = errors.New("student has not fully paid")
	ErrNoInvite           = errors.New("student has no generated invite")
	ErrMissingEmail       = errors.New("student has no email on record")
	ErrBadSignature       = errors.New("webhook signature verification failed")
	ErrUnknownReference   = errors.New("reference does not match any payment")
)
