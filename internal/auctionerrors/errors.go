package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrItemNotFound = errors.New("item not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNoBids       = errors.New("no bids found for item")
	ErrConflict     = errors.New("concurrent update conflict")
)

// business rule errors
var (
	ErrValidation    = errors.New("invalid input")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrAuctionClosed = errors.New("auction is closed")
	ErrTooEarly      = errors.New("auction period is not over yet")
	ErrAlreadyClosed = errors.New("auction already closed")
)

// identity errors
var (
	ErrUnauthorized = errors.New("could not validate credentials")
	ErrForbidden    = errors.New("admin access required")
)
