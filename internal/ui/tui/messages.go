// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"github.com/jeranaias/gatechat/internal/chat"
	"github.com/jeranaias/gatechat/internal/threads"
)

// ReplyMsg carries the outcome of a remote call started by a send.
type ReplyMsg struct {
	Pending *chat.Pending
	Message threads.Message
	Err     error
}
