// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/threads"
)

// ErrorPrefix marks an assistant message that carries a failure reason.
const ErrorPrefix = "⚠️ "

// ErrReplyDropped is returned by Finish when the target thread no longer
// holds the message the reply answers.
var ErrReplyDropped = errors.New("reply dropped: thread changed while waiting")

// Completer produces an assistant reply for a history.
type Completer interface {
	Complete(ctx context.Context, apiKey, model string, messages []cloud.ChatMessage) (string, error)
}

// Pending is a send in flight.
type Pending struct {
	ThreadID string
	User     threads.Message
	APIKey   string
	Model    string
	History  []cloud.ChatMessage

	// position of User in the thread at send time
	index int
}

// Controller couples the repository with a Completer.
type Controller struct {
	repo   *threads.Repository
	client Completer
	log    zerolog.Logger
}

// NewController creates a Controller.
func NewController(repo *threads.Repository, client Completer, log zerolog.Logger) *Controller {
	return &Controller{
		repo:   repo,
		client: client,
		log:    log.With().Str("component", "chat").Logger(),
	}
}

// Begin appends text as a user message to the active thread. The message is
// in memory and (storage permitting) persisted before Begin returns. A
// persistence failure is returned alongside a usable Pending.
func (c *Controller) Begin(text string) (*Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, threads.ErrEmptyInput
	}

	active, err := c.repo.EnsureActiveThread()
	if err != nil && active.ID == "" {
		return nil, err
	}

	msg, persistErr := c.repo.AppendTo(active.ID, threads.RoleUser, text)
	if persistErr != nil && msg.Timestamp.IsZero() {
		return nil, persistErr
	}

	thread, ok := c.repo.Thread(active.ID)
	if !ok {
		return nil, threads.ErrThreadNotFound
	}

	settings := c.repo.Settings()
	p := &Pending{
		ThreadID: thread.ID,
		User:     msg,
		APIKey:   settings.APIKey,
		Model:    settings.Model,
		History:  project(thread.Messages),
		index:    len(thread.Messages) - 1,
	}

	c.log.Debug().
		Str("thread_id", p.ThreadID).
		Int("history", len(p.History)).
		Msg("send started")

	if persistErr == nil {
		persistErr = err
	}
	return p, persistErr
}

// Finish records the outcome of a send in the thread captured by Begin.
func (c *Controller) Finish(p *Pending, reply string, callErr error) (threads.Message, error) {
	content := reply
	if callErr != nil {
		content = ErrorPrefix + callErr.Error()
		c.log.Warn().Err(callErr).Str("thread_id", p.ThreadID).Msg("completion failed")
	}

	if !c.stillAnswerable(p) {
		c.log.Warn().Str("thread_id", p.ThreadID).Msg("dropping reply for changed thread")
		return threads.Message{}, ErrReplyDropped
	}

	msg, err := c.repo.AppendTo(p.ThreadID, threads.RoleAssistant, content)
	if err != nil && msg.Timestamp.IsZero() {
		return threads.Message{}, err
	}
	return msg, err
}

// Send runs Begin, the remote call and Finish. It blocks until the call
// returns. The returned error reports persistence problems only; remote
// failures are recorded in the thread.
func (c *Controller) Send(ctx context.Context, text string) (threads.Message, error) {
	p, err := c.Begin(text)
	if p == nil {
		return threads.Message{}, err
	}

	msg, finishErr := c.Resolve(ctx, p)
	if finishErr != nil {
		return msg, finishErr
	}
	return msg, err
}

// Resolve performs the remote call for p and records the outcome with Finish.
// It is safe to call from a goroutine other than the one that ran Begin.
func (c *Controller) Resolve(ctx context.Context, p *Pending) (threads.Message, error) {
	reply, callErr := c.client.Complete(ctx, p.APIKey, p.Model, p.History)
	return c.Finish(p, reply, callErr)
}

// stillAnswerable reports whether the captured thread still holds the user
// message at the position it had at send time.
func (c *Controller) stillAnswerable(p *Pending) bool {
	t, ok := c.repo.Thread(p.ThreadID)
	if !ok || p.index >= len(t.Messages) {
		return false
	}
	m := t.Messages[p.index]
	return m.Role == threads.RoleUser && m.Content == p.User.Content && m.Timestamp.Equal(p.User.Timestamp)
}

// project converts thread messages into the request history.
func project(messages []threads.Message) []cloud.ChatMessage {
	out := make([]cloud.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = cloud.ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
