// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth supplies bearer tokens to the API and store clients.
//
// Authentication itself (sign-in, refresh) happens outside this process;
// auth only reads the resulting access token and keeps it current. A
// missing token is not an error: clients proceed anonymously and let the
// backend decide what anonymous callers may do.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/neel-drishti/floatchat-tui/internal/util"
)

// =============================================================================
// CREDENTIAL PROVIDER
// =============================================================================

// CredentialProvider yields the current access token, if any.
type CredentialProvider interface {
	// CurrentToken returns the token and true, or "" and false when the
	// caller should proceed anonymously.
	CurrentToken() (string, bool)
}

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// StaticProvider holds a fixed token. Useful for tests and one-shot CLI
// invocations with a token passed via environment.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider that always returns token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: strings.TrimSpace(token)}
}

// CurrentToken implements CredentialProvider.
func (p *StaticProvider) CurrentToken() (string, bool) {
	if p == nil || p.token == "" {
		return "", false
	}
	return p.token, true
}

// =============================================================================
// FILE PROVIDER
// =============================================================================

// FileProvider reads the token from a file and hot-reloads it when the
// file changes, so an external sign-in flow can refresh credentials
// without restarting the TUI.
type FileProvider struct {
	mu    sync.RWMutex
	path  string
	token string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileProvider creates a provider backed by the file at path. The file
// may be absent; the provider then reports no token until it appears.
func NewFileProvider(path string) (*FileProvider, error) {
	p := &FileProvider{
		path: path,
		done: make(chan struct{}),
	}
	p.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create token watcher: %w", err)
	}
	p.watcher = watcher

	// Watch the parent directory: watching the file itself breaks when
	// the sign-in flow replaces it via rename.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch token directory: %w", err)
	}

	go p.watch()
	return p, nil
}

// CurrentToken implements CredentialProvider.
func (p *FileProvider) CurrentToken() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" {
		return "", false
	}
	return p.token, true
}

// SaveToken writes a token to the backing file and updates the in-memory
// copy immediately, without waiting for the watcher to fire.
func (p *FileProvider) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if err := util.AtomicWriteFileWithDir(p.path, []byte(token+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	return nil
}

// Close stops the file watcher.
func (p *FileProvider) Close() error {
	close(p.done)
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

// reload reads the token file into memory. A read failure clears the
// token rather than keeping a possibly-revoked one.
func (p *FileProvider) reload() {
	data, err := os.ReadFile(p.path)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.token = ""
		return
	}
	p.token = strings.TrimSpace(string(data))
}

// watch reloads the token whenever the backing file is written, created,
// renamed into place, or removed.
func (p *FileProvider) watch() {
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				p.reload()
			}
		case _, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors are not fatal; the cached token stays valid.
		}
	}
}
