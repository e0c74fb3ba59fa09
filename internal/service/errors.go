package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrAdminRegistration  = errors.New("admin accounts cannot be self-registered")
	ErrSessionNotFound    = errors.New("session not found or expired")

	ErrUserNotFound       = errors.New("user not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrNotListingOwner    = errors.New("listing belongs to another seller")
	ErrInvalidListing     = errors.New("price must be between 0 and 9999999999.99 and stock must not be negative")
	ErrInvalidModeration  = errors.New("products can only be moderated to active or rejected")

	ErrOfferNotFound  = errors.New("offer not found")
	ErrNotOfferSeller = errors.New("offer belongs to another seller")
	ErrNotBuyer       = errors.New("only buyers can make offers")
	ErrNotSeller      = errors.New("only sellers can manage listings")
	ErrAmountTooLarge = errors.New("amount must not exceed 9999999999.99")
)
