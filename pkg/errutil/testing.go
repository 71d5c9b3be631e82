// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package errutil

import (
	"slices"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code(), "error: %v", err)
}

// AssertErrorContext asserts that key=value is attached anywhere in err's
// oops chain. A missing key reports the keys that are present.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	fields := requireOops(t, err).Context()
	got, ok := fields[key]
	require.True(t, ok, "context key %q missing, have %v", key, contextKeys(fields))
	assert.Equal(t, value, got, "context key %q", key)
}

// AssertNoErrorContext asserts that key is not attached to err. Used to check
// that secrets such as passwords stay out of logged error context.
func AssertNoErrorContext(t *testing.T, err error, key string) {
	t.Helper()
	fields := requireOops(t, err).Context()
	assert.NotContains(t, fields, key, "context key %q must not be attached", key)
}

func contextKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
