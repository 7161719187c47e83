// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app assembles one gatechat session: config, store, gate, thread
// repository, completion client and chat controller.
//
// An App is built at session start, hydrated once when the gate unlocks and
// closed at session end. Both terminal surfaces drive the same App.
package app

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/gate"
	"github.com/jeranaias/gatechat/internal/logging"
	"github.com/jeranaias/gatechat/internal/storage"
	"github.com/jeranaias/gatechat/internal/threads"
)

// App is the session context.
type App struct {
	Config  *config.Config
	Store   storage.Store
	Gate    *gate.Gate
	Threads *threads.Repository
	Client  *cloud.Client
	Chat    *chat.Controller
	Log     zerolog.Logger

	logCloser io.Closer

	mu        sync.Mutex
	unlockErr error
}

// Option configures New.
type Option func(*options)

type options struct {
	store     storage.Store
	log       *zerolog.Logger
	completer chat.Completer
}

// WithStore uses s instead of opening the configured backend.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger uses log instead of building one from config.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = &log }
}

// WithCompleter replaces the remote client used by the chat controller.
func WithCompleter(c chat.Completer) Option {
	return func(o *options) { o.completer = c }
}

// New builds a locked session from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	if o.log != nil {
		a.Log = *o.log
	} else {
		logPath, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		log, closer, err := logging.New(logging.Config{
			Level:  cfg.Log.Level,
			Pretty: cfg.Log.Pretty,
			File:   logPath,
		})
		if err != nil {
			return nil, err
		}
		a.Log, a.logCloser = log, closer
	}

	if o.store != nil {
		a.Store = o.store
	} else {
		path, err := cfg.StoragePath()
		if err != nil {
			a.closeLog()
			return nil, err
		}
		store, err := storage.Open(cfg.Storage.Backend, path, a.Log)
		if err != nil {
			a.closeLog()
			return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
		}
		a.Store = store
	}

	a.Client = cloud.NewClient(
		cloud.WithBaseURL(cfg.API.BaseURL),
		cloud.WithTemperature(cfg.API.Temperature),
		cloud.WithRateLimit(cfg.API.RequestsPerMinute),
		cloud.WithLogger(a.Log),
	)
	var completer chat.Completer = a.Client
	if o.completer != nil {
		completer = o.completer
	}

	a.Threads = threads.New(a.Store, a.Log, threads.WithDefaultModel(cfg.API.DefaultModel))
	a.Chat = chat.NewController(a.Threads, completer, a.Log)
	a.Gate = gate.New(a.Store, a.Log, gate.WithRecentCount(cfg.UI.RecentCount))
	a.Gate.OnUnlock(a.hydrate)

	appLog := logging.Component(a.Log, "app")
	appLog.Info().
		Str("backend", cfg.Storage.Backend).
		Str("gate", a.Gate.State().String()).
		Msg("session started")

	return a, nil
}

// hydrate runs once per unlock.
func (a *App) hydrate() {
	a.Threads.Hydrate()
	_, err := a.Threads.EnsureActiveThread()

	a.mu.Lock()
	a.unlockErr = err
	a.mu.Unlock()
}

// UnlockError returns the persistence error from the last unlock, if any.
// The session stays usable either way.
func (a *App) UnlockError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unlockErr
}

// Unlocked reports whether the gate is open.
func (a *App) Unlocked() bool {
	return a.Gate.State() == gate.Unlocked
}

// Snapshot returns the repository view with the configured recent count.
func (a *App) Snapshot() threads.Snapshot {
	return a.Threads.Snapshot(a.Config.UI.RecentCount)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closeLog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeLog() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}
