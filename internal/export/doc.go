// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes gatechat threads to files.
//
// # Key Types
//
//   - Format: export format (JSON, Markdown)
//   - Exporter: turns a thread into bytes of one format
//
// # Supported Formats
//
//   - JSON: {id, title, createdAt, messages}, pretty-printed
//   - Markdown: readable transcript, also used for on-screen history
//
// # Usage
//
//	data, err := export.JSON(thread)
//	path, err := export.WriteFile(".", thread, export.FormatJSON)
package export
