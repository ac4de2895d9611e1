// floatchat TUI - A terminal dashboard for chatting with ocean float telemetry.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/neel-drishti/floatchat-tui/internal/api"
	"github.com/neel-drishti/floatchat-tui/internal/auth"
	"github.com/neel-drishti/floatchat-tui/internal/cache"
	"github.com/neel-drishti/floatchat-tui/internal/cli"
	"github.com/neel-drishti/floatchat-tui/internal/config"
	"github.com/neel-drishti/floatchat-tui/internal/session"
	"github.com/neel-drishti/floatchat-tui/internal/store"
	"github.com/neel-drishti/floatchat-tui/internal/ui/chat"
)

// Version information, set at build time via -ldflags.
var Version = "dev"

func init() {
	cli.Version = Version
}

// =============================================================================
// PROGRAM REFERENCE
// =============================================================================

// The reconciler mutates state from goroutines outside the Bubble Tea
// loop; its change callback pushes repaints through Program.Send.
var (
	programMu  sync.Mutex
	programRef *tea.Program
)

func notifyStateChanged() {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(chat.StateChangedMsg{})
	}
}

// =============================================================================
// APP MODEL
// =============================================================================

// appModel adapts the chat view to the tea.Model interface.
type appModel struct {
	chat chat.Model
}

func (a appModel) Init() tea.Cmd {
	return a.chat.Init()
}

func (a appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a appModel) View() string {
	return a.chat.View()
}

// =============================================================================
// MAIN
// =============================================================================

func main() {
	args := cli.ParseArgs(os.Args[1:])

	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	// Token file provider with hot reload; sign-in flows replace the
	// file and running clients pick the new token up immediately.
	creds, err := auth.NewFileProvider(cfg.Auth.TokenFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Credential setup failed: %v\n", err)
		os.Exit(1)
	}
	defer creds.Close()

	if _, ok := creds.CurrentToken(); !ok && cfg.Auth.PromptOnMissing && cli.IsStdinTTY() {
		if token, err := auth.PromptToken(); err == nil && token != "" {
			if err := creds.SaveToken(token); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save token: %v\n", err)
			}
		}
	}

	apiClient := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.APITimeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Credentials:       creds,
	})

	// CLI subcommands run without the full-screen UI.
	if handled, err := cli.Run(apiClient, args); handled {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runTUI(cfg, apiClient, creds)
}

func runTUI(cfg *config.Config, apiClient *api.Client, creds *auth.FileProvider) {
	storeClient := store.NewClient(store.Config{
		URL:         cfg.Store.URL,
		AnonKey:     cfg.Store.AnonKey,
		Timeout:     cfg.StoreTimeout(),
		Credentials: creds,
	})

	var localCache *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		localCache, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: local cache unavailable: %v\n", err)
			localCache = nil
		} else {
			defer localCache.Close()
		}
	}

	// Diagnostics go to a file; stderr would corrupt the alt screen.
	logf := func(string, ...any) {}
	if dir, err := config.ConfigDir(); err == nil {
		if logFile, err := os.OpenFile(filepath.Join(dir, "floatchat.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			defer logFile.Close()
			logf = func(format string, args ...any) {
				fmt.Fprintf(logFile, format+"\n", args...)
			}
		}
	}

	reconciler := session.NewReconciler(session.Config{
		API:      apiClient,
		Store:    storeClient,
		Cache:    localCache,
		OnChange: notifyStateChanged,
		Logf:     logf,
	})

	chatModel := chat.New(chat.Config{
		Reconciler:   reconciler,
		SidebarWidth: cfg.UI.SidebarWidth,
		Markdown:     cfg.UI.Markdown,
	})

	p := tea.NewProgram(
		appModel{chat: chatModel},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running floatchat: %v\n", err)
		os.Exit(1)
	}
}
