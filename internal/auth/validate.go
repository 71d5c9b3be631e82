// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 6

// emailRegex accepts one or more non-space characters, an @, one or more
// non-space characters, a dot and one or more non-space characters.
// RE2's \S only excludes ASCII whitespace, so the class also rejects \v,
// Unicode separators (NBSP, U+2000-U+200A, U+3000, ...) and U+FEFF.
var emailRegex = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}]+@[^\s\v\p{Z}\x{FEFF}]+\.[^\s\v\p{Z}\x{FEFF}]+$`)

// Validation messages.
const (
	MsgNameFieldsRequired    = "Name fields required"
	MsgInvalidEmail          = "Invalid email"
	MsgPasswordTooShort      = "Password too short"
	MsgPasswordsDoNotMatch   = "Passwords do not match"
	MsgLoginInvalidEmail     = "invalid email"
	MsgLoginPasswordTooShort = "password too short"
	MsgProfileNamesRequired  = "First name and last name are required"
	MsgNewPasswordTooShort   = "New password must be at least 6 characters"
	MsgPasswordTooLong       = "Password too long"
	MsgInvalidCharacters     = "Invalid characters in input"
)

// RegistrationForm holds the fields submitted on the registration page.
type RegistrationForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginForm holds the fields submitted on the login page.
type LoginForm struct {
	Email    string
	Password string
}

// ProfileForm holds the fields submitted on the profile edit page.
// An empty Password together with an empty ConfirmPassword keeps the
// current password.
type ProfileForm struct {
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
}

// ValidateRegistration checks a registration form. It returns nil when the
// form is acceptable, or a *ValidationError naming the first violated rule.
func ValidateRegistration(f RegistrationForm) error {
	if !storable(f.FirstName, f.LastName, f.Email) {
		return invalid(MsgInvalidCharacters)
	}
	if f.FirstName == "" || f.LastName == "" {
		return invalid(MsgNameFieldsRequired)
	}
	if !validEmail(f.Email) {
		return invalid(MsgInvalidEmail)
	}
	if !longEnough(f.Password) {
		return invalid(MsgPasswordTooShort)
	}
	if f.Password != f.ConfirmPassword {
		return invalid(MsgPasswordsDoNotMatch)
	}
	return nil
}

// ValidateLoginInput checks the shape of a login form.
func ValidateLoginInput(f LoginForm) error {
	if !storable(f.Email) {
		return invalid(MsgInvalidCharacters)
	}
	if !validEmail(f.Email) {
		return invalid(MsgLoginInvalidEmail)
	}
	if !longEnough(f.Password) {
		return invalid(MsgLoginPasswordTooShort)
	}
	return nil
}

// ValidateProfileEdit checks a profile edit form.
func ValidateProfileEdit(f ProfileForm) error {
	if !storable(f.FirstName, f.LastName) {
		return invalid(MsgInvalidCharacters)
	}
	if f.FirstName == "" || f.LastName == "" {
		return invalid(MsgProfileNamesRequired)
	}
	if f.Password != "" && !longEnough(f.Password) {
		return invalid(MsgNewPasswordTooShort)
	}
	if f.Password != f.ConfirmPassword {
		return invalid(MsgPasswordsDoNotMatch)
	}
	return nil
}

func validEmail(email string) bool {
	return email != "" && emailRegex.MatchString(email)
}

// longEnough counts runes, so "😀😀😀" is 3 characters, not 6 UTF-16 units.
func longEnough(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// storable reports whether every value can be stored in a PostgreSQL TEXT
// column: valid UTF-8 without NUL bytes.
func storable(values ...string) bool {
	for _, v := range values {
		if !utf8.ValidString(v) || strings.ContainsRune(v, 0) {
			return false
		}
	}
	return true
}
