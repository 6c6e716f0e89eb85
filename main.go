// docchat - terminal client for a document question answering server.
//
// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/api"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/cli"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/config"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/conversation"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/session"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/storage"
	"github.com/Jagapathi-Vallapuri/Medical-Document-RAG-Retrieval-Augmented-Generation-System/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		plain       = flag.Bool("plain", false, "use the plain REPL instead of the full-screen interface")
		noStream    = flag.Bool("no-stream", false, "plain mode: use the single-shot ask endpoint")
		apiURL      = flag.String("api-url", "", "backend base URL (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("docchat %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*plain, *noStream, *apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(plain, noStream bool, apiURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// Diagnostics go to stderr only when debug output is on.
	var logf func(format string, args ...any)
	if cfg.UI.ShowDebug || os.Getenv("DOCCHAT_DEBUG") != "" {
		logf = log.Printf
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Logf:              logf,
	})

	storeOpts := []session.Option{}
	if logf != nil {
		storeOpts = append(storeOpts, session.WithLogf(logf))
	}
	var cache *storage.Cache
	if cfg.Cache.Enabled {
		path, err := cfg.CachePath()
		if err == nil {
			cache, err = storage.Open(path)
		}
		if err != nil {
			log.Printf("cache disabled: %v", err)
		} else {
			defer cache.Close()
			storeOpts = append(storeOpts, session.WithCache(cache))
		}
	}
	store := session.NewStore(client, storeOpts...)
	store.Prime()

	// An unreachable server drops the client into offline mode instead of
	// failing: cached transcripts stay readable and questions are retried
	// against the backend as they are asked.
	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		store.UseLocal()
	} else if err := store.Refresh(ctx); err != nil {
		store.UseLocal()
	} else if store.ActiveID() == "" {
		if _, err := store.Create(ctx, ""); err != nil {
			return err
		}
	}

	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runPlain(ctx, cfg, store, client, noStream)
	}
	return runTUI(cfg, store, client)
}

// runPlain drives the liner REPL. Controller events print inline.
func runPlain(ctx context.Context, cfg *config.Config, store *session.Store, client *api.Client, noStream bool) error {
	repl := cli.New(cfg, store, nil, client)
	ctrl := conversation.NewController(store, client, repl.NotifyFunc())
	repl.SetController(ctrl)
	repl.SetNoStream(noStream)
	return repl.Run(ctx)
}

// runTUI starts the Bubble Tea program. Controller events flow through a
// buffered channel into the Update loop.
func runTUI(cfg *config.Config, store *session.Store, client *api.Client) error {
	events := make(chan conversation.Event, 64)
	ctrl := conversation.NewController(store, client, func(ev conversation.Event) {
		events <- ev
	})

	model := ui.New(cfg, store, ctrl, client, events)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Apply edits to ~/.docchat/config.toml without a restart. Display
	// settings take effect immediately; connection settings need a restart.
	watcher, err := config.NewWatcher(func(next *config.Config) {
		p.Send(ui.ConfigReloadedMsg{Config: next})
	})
	if err != nil {
		log.Printf("config watcher disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	_, err = p.Run()
	return err
}
