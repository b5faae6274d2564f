package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPrice      = errors.New("invalid price option")
	ErrPaymentIncomplete = errors.New("payment not completed")
	ErrCreditsMetadata   = errors.New("credits metadata malformed")
)
