// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs the send/receive flow of a gatechat session.
//
// A send is split in two so a surface can run the network call wherever it
// likes. Begin appends and persists the user message and captures everything
// the request needs. Finish appends the reply (or an error annotation) to the
// thread that was active when Begin ran, even if the user has moved on.
//
// # Usage
//
//	ctl := chat.NewController(repo, client, log)
//	msg, err := ctl.Send(ctx, "Hello")
//
// or, from a bubbletea Cmd:
//
//	p, err := ctl.Begin(text)
//	reply, err := client.Complete(ctx, p.APIKey, p.Model, p.History)
//	ctl.Finish(p, reply, err)
package chat
