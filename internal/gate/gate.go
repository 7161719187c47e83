// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/gatechat/internal/digest"
	"github.com/jeranaias/gatechat/internal/storage"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Store keys owned by the gate.
const (
	KeyPasswordSet  = "gatechat.password.set"
	KeyPasswordHash = "gatechat.password.hash"
)

// setMarker is the value of KeyPasswordSet once a password exists.
const setMarker = "1"

// DefaultRecentCount is the number of threads the unlock prompt advertises.
const DefaultRecentCount = 3

// Hints shown next to the prompt after a failed Submit.
const (
	HintPasswordRequired  = "Password required"
	HintIncorrectPassword = "Incorrect password"
)

// ResetConfirmation is the question a surface asks before calling Reset.
const ResetConfirmation = "Reset the password? This does not delete chats or API key."

// =============================================================================
// STATE
// =============================================================================

// State is the gate's lock state.
type State int

const (
	// LockedUnset means no password has been created yet.
	LockedUnset State = iota
	// LockedSet means a password exists and has not been entered.
	LockedSet
	// Unlocked means the session may use the repository.
	Unlocked
)

// String returns a short name for logs.
func (s State) String() string {
	switch s {
	case LockedUnset:
		return "locked_unset"
	case LockedSet:
		return "locked_set"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Locked reports whether s is one of the locked states.
func (s State) Locked() bool {
	return s != Unlocked
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrPasswordRequired is returned for an empty password.
	ErrPasswordRequired = errors.New(HintPasswordRequired)

	// ErrIncorrectPassword is returned when the digest does not match.
	ErrIncorrectPassword = errors.New(HintIncorrectPassword)

	// ErrNotUnlocked is returned by Reset outside the Unlocked state.
	ErrNotUnlocked = errors.New("gate is locked")
)

// =============================================================================
// GATE
// =============================================================================

// Gate is the password state machine.
type Gate struct {
	mu       sync.Mutex
	store    storage.Store
	log      zerolog.Logger
	state    State
	recent   int
	onUnlock []func()
}

// Option configures a Gate.
type Option func(*Gate)

// WithRecentCount sets the thread count named in the unlock prompt.
func WithRecentCount(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.recent = n
		}
	}
}

// New creates a Gate. The initial state is read from the store; a fresh
// process is always locked.
func New(store storage.Store, log zerolog.Logger, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		log:    log.With().Str("component", "gate").Logger(),
		recent: DefaultRecentCount,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.state = g.lockedState()
	g.log.Debug().Str("state", g.state.String()).Msg("gate initialized")
	return g
}

// lockedState derives the locked state from the marker key.
func (g *Gate) lockedState() State {
	if v, ok := g.store.Get(KeyPasswordSet); ok && v == setMarker {
		return LockedSet
	}
	return LockedUnset
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Prompt returns the text a surface shows while locked.
func (g *Gate) Prompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case LockedSet:
		return fmt.Sprintf("Enter your password to unlock and view your last %d chats.", g.recent)
	case LockedUnset:
		return "Create a simple password to unlock this app. (Not encryption — just a gate)"
	default:
		return ""
	}
}

// OnUnlock registers fn to run when the gate enters Unlocked. Hooks run
// in registration order, once per transition, outside the gate's lock.
func (g *Gate) OnUnlock(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUnlock = append(g.onUnlock, fn)
}

// Submit checks or creates the password. In the Unlocked state it does
// nothing.
func (g *Gate) Submit(password string) error {
	pw := canonical(password)

	g.mu.Lock()
	switch g.state {
	case Unlocked:
		g.mu.Unlock()
		return nil

	case LockedUnset:
		if pw == "" {
			g.mu.Unlock()
			return ErrPasswordRequired
		}
		if err := g.create(pw); err != nil {
			g.mu.Unlock()
			return err
		}
		g.log.Info().Msg("password created")

	case LockedSet:
		if pw == "" {
			g.mu.Unlock()
			return ErrPasswordRequired
		}
		stored, _ := g.store.Get(KeyPasswordHash)
		if !digest.Equal(pw, stored) {
			g.mu.Unlock()
			g.log.Info().Msg("unlock rejected")
			return ErrIncorrectPassword
		}
		g.log.Info().Msg("unlocked")
	}

	g.state = Unlocked
	hooks := append([]func(){}, g.onUnlock...)
	g.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return nil
}

// create writes the digest, then the marker. A half-written record is rolled
// back so the next run still sees LockedUnset.
func (g *Gate) create(pw string) error {
	if err := g.store.Set(KeyPasswordHash, digest.String(pw)); err != nil {
		g.log.Warn().Err(err).Msg("storing password digest failed")
		return fmt.Errorf("saving password: %w", err)
	}
	if err := g.store.Set(KeyPasswordSet, setMarker); err != nil {
		g.store.Remove(KeyPasswordHash)
		g.log.Warn().Err(err).Msg("storing password marker failed, digest rolled back")
		return fmt.Errorf("saving password: %w", err)
	}
	return nil
}

// Reset forgets the password. Chats and settings are left alone.
func (g *Gate) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Unlocked {
		return ErrNotUnlocked
	}
	g.store.Remove(KeyPasswordSet)
	g.store.Remove(KeyPasswordHash)
	g.state = LockedUnset

	g.log.Info().Msg("password reset")
	return nil
}

// canonical trims and NFC-normalises a password.
func canonical(password string) string {
	return norm.NFC.String(strings.TrimSpace(password))
}
