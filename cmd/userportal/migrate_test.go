// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userportal/userportal/pkg/errutil"
)

type fakeMigrator struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	pending    []uint
	forced     *int
	closed     bool

	upCalled   bool
	downCalled bool
}

func (f *fakeMigrator) Up() error {
	f.upCalled = true
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.downCalled = true
	return f.downErr
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = &v
	return nil
}

func (f *fakeMigrator) PendingMigrations() ([]uint, error) {
	return f.pending, nil
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

// useFakeMigrator swaps newMigrator for the duration of the test and
// records the URL it was called with.
func useFakeMigrator(t *testing.T, m *fakeMigrator) *string {
	t.Helper()
	var gotURL string
	orig := newMigrator
	newMigrator = func(url string) (Migrator, error) {
		gotURL = url
		return m, nil
	}
	t.Cleanup(func() { newMigrator = orig })
	return &gotURL
}

func executeMigrate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"migrate"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "non-numeric returns error", input: "abc", wantErr: true},
		{name: "float parses as integer (Sscanf stops at dot)", input: "1.5", wantVersion: 1},
		{name: "trailing chars are ignored", input: "3abc", wantVersion: 3},
		{name: "negative parses", input: "-1", wantVersion: -1},
		{name: "empty string returns error", input: "", wantErr: true},
		{name: "whitespace only returns error", input: "   ", wantErr: true},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Contains(t, cmd.Short, "migrations")
	assert.Contains(t, cmd.Long, "PostgreSQL")

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "version", "status", "force"}, names)
}

func TestMigrateCommand_NoDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	useFakeMigrator(t, &fakeMigrator{})

	_, err := executeMigrate(t, "up")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestMigrateCommand_URLSources(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/db")
		m := &fakeMigrator{}
		gotURL := useFakeMigrator(t, m)

		_, err := executeMigrate(t, "up")

		require.NoError(t, err)
		assert.Equal(t, "postgres://env/db", *gotURL)
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/db")
		gotURL := useFakeMigrator(t, &fakeMigrator{})

		_, err := executeMigrate(t, "up", "--database.url", "postgres://flag/db")

		require.NoError(t, err)
		assert.Equal(t, "postgres://flag/db", *gotURL)
	})

	t.Run("config file", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		path := filepath.Join(t.TempDir(), "userportal.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://file/db\n"), 0o600))
		gotURL := useFakeMigrator(t, &fakeMigrator{})

		configFile = ""
		cmd := NewRootCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetArgs([]string{"--config", path, "migrate", "up"})
		require.NoError(t, cmd.Execute())

		assert.Equal(t, "postgres://file/db", *gotURL)
	})
}

func TestMigrateUp(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")

	t.Run("success", func(t *testing.T) {
		m := &fakeMigrator{}
		useFakeMigrator(t, m)

		out, err := executeMigrate(t, "up")

		require.NoError(t, err)
		assert.True(t, m.upCalled)
		assert.True(t, m.closed)
		assert.Contains(t, out, "Migrations completed successfully")
	})

	t.Run("failure", func(t *testing.T) {
		m := &fakeMigrator{upErr: oops.Code("MIGRATION_UP_FAILED").Wrap(errors.New("boom"))}
		useFakeMigrator(t, m)

		_, err := executeMigrate(t, "up")

		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
		assert.True(t, m.closed)
	})
}

func TestMigrateDown_RequiresConfirmation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	m := &fakeMigrator{}
	useFakeMigrator(t, m)

	_, err := executeMigrate(t, "down")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
	assert.False(t, m.downCalled)

	out, err := executeMigrate(t, "down", "--yes")

	require.NoError(t, err)
	assert.True(t, m.downCalled)
	assert.Contains(t, out, "Rollback completed successfully")
}

func TestMigrateVersion(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")

	tests := []struct {
		name  string
		m     *fakeMigrator
		want  string
		isErr bool
	}{
		{"clean", &fakeMigrator{version: 2}, "Version: 2\n", false},
		{"dirty", &fakeMigrator{version: 1, dirty: true}, "Version: 1 (dirty)\n", false},
		{"error", &fakeMigrator{versionErr: errors.New("boom")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useFakeMigrator(t, tt.m)

			out, err := executeMigrate(t, "version")

			if tt.isErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestMigrateStatus(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")

	t.Run("pending", func(t *testing.T) {
		useFakeMigrator(t, &fakeMigrator{pending: []uint{1, 2}})

		out, err := executeMigrate(t, "status")

		require.NoError(t, err)
		assert.Contains(t, out, "Pending migrations: 000001, 000002")
	})

	t.Run("up to date", func(t *testing.T) {
		useFakeMigrator(t, &fakeMigrator{})

		out, err := executeMigrate(t, "status")

		require.NoError(t, err)
		assert.Contains(t, out, "Schema is up to date")
	})
}

func TestMigrateForce(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	m := &fakeMigrator{}
	useFakeMigrator(t, m)

	out, err := executeMigrate(t, "force", "1")

	require.NoError(t, err)
	require.NotNil(t, m.forced)
	assert.Equal(t, 1, *m.forced)
	assert.Contains(t, out, "Forced version 1")

	_, err = executeMigrate(t, "force", "abc")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrateCommand_InvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "invalid://not-a-real-db")

	_, err := executeMigrate(t, "up")

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}
