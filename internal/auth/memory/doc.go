// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

// Package memory provides process-local implementations of the auth stores.
//
// SessionStore is the production session store: sessions live for the
// lifetime of the process and every restart logs all users out.
// UserRepository backs development mode (no database configured) and tests.
package memory
