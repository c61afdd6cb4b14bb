package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"friendship-backend/application/queries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestFriendctl_SeedThenResolve(t *testing.T) {
	// Arrange
	dbPath := filepath.Join(t.TempDir(), "friendctl.db")
	store := []string{"--store", "sqlite", "--sqlite-path", dbPath}

	out, err := runCLI(t, append(store, "migrate")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready (sqlite)")

	out, err = runCLI(t, append(store, "seed")...)
	require.NoError(t, err)

	ids := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		require.Len(t, fields, 2)
		ids[fields[0]] = fields[1]
	}
	require.Len(t, ids, 5)

	// Act
	out, err = runCLI(t, append(store, "friends", ids["Alice"], "--degree", "2", "--format", "json")...)

	// Assert
	require.NoError(t, err)
	var views []queries.UserView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Charlie", views[0].Name)

	out, err = runCLI(t, append(store, "users")...)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(out, "@example.com"))
}

func TestFriendctl_SeedTwiceFails(t *testing.T) {
	store := []string{"--store", "sqlite", "--sqlite-path", filepath.Join(t.TempDir(), "twice.db")}

	_, err := runCLI(t, append(store, "seed")...)
	require.NoError(t, err)

	_, err = runCLI(t, append(store, "seed")...)
	assert.Error(t, err)
}

func TestFriendctl_Errors(t *testing.T) {
	store := []string{"--store", "memory"}

	_, err := runCLI(t, append(store, "friends", "alice", "--degree", "4")...)
	assert.Error(t, err)

	_, err = runCLI(t, append(store, "friends", "alice", "--format", "yaml")...)
	assert.ErrorContains(t, err, "invalid format")

	_, err = runCLI(t, append(store, "friends")...)
	assert.Error(t, err)

	_, err = runCLI(t, "--store", "cassandra", "migrate")
	assert.Error(t, err)
}

func TestFriendctl_EmptyStore(t *testing.T) {
	out, err := runCLI(t, "--store", "memory", "users")

	require.NoError(t, err)
	assert.Contains(t, out, "No users found")
}
