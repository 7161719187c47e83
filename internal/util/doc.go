// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by gatechat packages.
//
// # Key Functions
//
// String Utilities:
//   - RunePrefix: first n characters of a string, never splitting a rune
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - SingleLine: collapse newlines for one-line previews
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.RunePrefix(firstMessage, 60)
//	label := util.TruncateWidth(util.SingleLine(title), 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
