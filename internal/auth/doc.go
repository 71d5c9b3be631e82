// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

// Package auth provides registration, login and profile management for UserPortal.
//
// # Domain Types
//
// User and Session should be created through their constructors:
//   - NewUser - assigns an ID and validates names, email and password digest
//   - NewSession - validates the token and user, applies an optional TTL
//
// Direct struct initialization bypasses validation and may create invalid state.
//
// # Errors
//
// Service methods return oops errors wrapping one of the sentinels
// (ErrNotFound, ErrDuplicateEmail, ErrInvalidCredentials, ErrUnauthorized)
// or a *ValidationError. OutcomeOf classifies them and PublicMessage returns
// the text that may be shown to a user.
//
// # Services
//
// Service coordinates the Credential Validator, PasswordHasher,
// UserRepository and SessionStore. It is created with NewAuthService, which
// rejects nil dependencies.
package auth
