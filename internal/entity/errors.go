package entity

import "errors"

var (
	// Validation and policy errors
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")

	// Reservation errors
	ErrSlotConflict = errors.New("slot conflict")
	ErrHoldExpired  = errors.New("slot hold expired")

	// Credits errors
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Booking errors
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid booking transition")

	// Device errors
	ErrDeviceNotFound    = errors.New("device not found")
	ErrDeviceUnreachable = errors.New("device unreachable")
	ErrDeviceTimeout     = errors.New("device command timed out")
	ErrNotAuthorized     = errors.New("not authorized")

	// Lookup errors
	ErrBoothNotFound   = errors.New("booth not found")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrRuleNotFound    = errors.New("pricing rule not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrPackageNotFound = errors.New("credit package not found")
)
