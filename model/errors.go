package model

import "github.com/pkg/errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("concurrent update")
	ErrUpstreamUnavailable = errors.New("generation service unavailable")

	ErrInvalidTerms      = errors.New("invalid product terms")
	ErrInvalidTransition = errors.New("invalid negotiation status transition")
	ErrNothingToAccept   = errors.New("no offer to accept")
	ErrOfferIncrease     = errors.New("offer cannot exceed a previous offer")
	ErrOfferOutOfBounds  = errors.New("offer outside product price bounds")
)
