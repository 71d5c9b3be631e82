// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package auth

import (
	"errors"
)

// Sentinel errors identifying the user-correctable failure kinds. Service
// methods wrap these with oops context; match them with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	// The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is returned when a session token is missing or unknown.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports the first input rule a form violated.
// Message is safe to show to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Outcome classifies the result of an Auth Service operation for the
// request boundary.
type Outcome string

// Outcomes returned by OutcomeOf.
const (
	OutcomeSuccess            Outcome = "success"
	OutcomeValidationError    Outcome = "validationError"
	OutcomeUnauthorized       Outcome = "unauthorized"
	OutcomeNotFound           Outcome = "notFound"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeInvalidCredentials Outcome = "invalidCredentials"
	OutcomeInternalError      Outcome = "internalError"
)

// Public messages for outcomes that do not carry their own text.
const (
	MsgDuplicateEmail     = "Email already registered"
	MsgInvalidCredentials = "Invalid email or password."
	MsgUnauthorized       = "Unauthorized"
	MsgNotFound           = "User not found"
	MsgInternal           = "Internal Server Error"
)

// OutcomeOf classifies err. A nil error is a success; anything that is not
// one of the known kinds is an internal error.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return OutcomeValidationError
	case errors.Is(err, ErrDuplicateEmail):
		return OutcomeDuplicate
	case errors.Is(err, ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return OutcomeUnauthorized
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeInternalError
	}
}

// PublicMessage returns the text that may be shown to the end user for err.
// Internal errors never leak their details.
func PublicMessage(err error) string {
	switch OutcomeOf(err) {
	case OutcomeSuccess:
		return ""
	case OutcomeValidationError:
		var verr *ValidationError
		errors.As(err, &verr)
		return verr.Message
	case OutcomeDuplicate:
		return MsgDuplicateEmail
	case OutcomeInvalidCredentials:
		return MsgInvalidCredentials
	case OutcomeUnauthorized:
		return MsgUnauthorized
	case OutcomeNotFound:
		return MsgNotFound
	default:
		return MsgInternal
	}
}
