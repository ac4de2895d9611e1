// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider("  tok-abc  ")
	token, ok := p.CurrentToken()
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", token)

	empty := NewStaticProvider("")
	_, ok = empty.CurrentToken()
	assert.False(t, ok, "empty static provider should report no token")
}

func TestFileProviderMissingFile(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFileProvider(filepath.Join(dir, "token"))
	require.NoError(t, err)
	defer p.Close()

	_, ok := p.CurrentToken()
	assert.False(t, ok, "missing file should mean anonymous, not error")
}

func TestFileProviderReadsExistingToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("tok-xyz\n"), 0600))

	p, err := NewFileProvider(path)
	require.NoError(t, err)
	defer p.Close()

	token, ok := p.CurrentToken()
	assert.True(t, ok)
	assert.Equal(t, "tok-xyz", token)
}

func TestFileProviderHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")

	p, err := NewFileProvider(path)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, os.WriteFile(path, []byte("tok-new"), 0600))

	// The watcher delivers asynchronously; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if token, ok := p.CurrentToken(); ok {
			assert.Equal(t, "tok-new", token)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("token file change was not picked up")
}

func TestFileProviderSaveToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "token")

	p, err := NewFileProvider(path)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SaveToken(" tok-saved \n"))

	token, ok := p.CurrentToken()
	assert.True(t, ok)
	assert.Equal(t, "tok-saved", token)

	// Persisted with trailing newline, trimmed on read
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-saved\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
