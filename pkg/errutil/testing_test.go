// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/userportal/userportal/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_UNAUTHORIZED").Errorf("no session")
	errutil.AssertErrorCode(t, err, "AUTH_UNAUTHORIZED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", "01HZX").Errorf("lookup failed")
	errutil.AssertErrorContext(t, err, "user_id", "01HZX")
}

func TestAssertErrorContext_SeesInnerWrappedContext(t *testing.T) {
	inner := oops.With("user_id", "01HZX").Errorf("row missing")
	err := oops.Code("AUTH_NOT_FOUND").With("operation", "get profile").Wrap(inner)

	errutil.AssertErrorCode(t, err, "AUTH_NOT_FOUND")
	errutil.AssertErrorContext(t, err, "operation", "get profile")
	errutil.AssertErrorContext(t, err, "user_id", "01HZX")
}

func TestAssertNoErrorContext_AbsentKey(t *testing.T) {
	err := oops.With("email", "user@example.com").Errorf("insert failed")
	errutil.AssertNoErrorContext(t, err, "password")
}
