package usecase

import "errors"

// Определение ошибок сервиса
var (
	ErrEmptyAmount       = errors.New("amount is required")
	ErrNotANumber        = errors.New("amount must be a positive number")
	ErrTooManyDecimals   = errors.New("amount can have at most two decimals")
	ErrBelowMinimum      = errors.New("amount is below the minimum")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrMethodRequired    = errors.New("payment method is required")
	ErrMissingFields     = errors.New("required fields are missing")
	ErrFieldNotAllowed   = errors.New("field does not apply to the selected method")
	ErrReferenceRequired = errors.New("transaction id is required")
	ErrProofRequired     = errors.New("payment screenshot is required")
	ErrProofTooLarge     = errors.New("image is too large")
	ErrProofNotImage     = errors.New("please upload an image file")
	ErrPlanLocked        = errors.New("plan is locked")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrUnknownOperation  = errors.New("unknown operation type")
)
