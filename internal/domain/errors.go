package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when the request fails local validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotMember is returned when an operation targets a user who does not belong to the campaign.
	ErrNotMember = errors.New("user is not a campaign member")
)
