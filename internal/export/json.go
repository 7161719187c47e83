// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/gatechat/internal/threads"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports threads as the same objects the store persists.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a thread to indented JSON.
func (e *JSONExporter) Export(t threads.Thread) ([]byte, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("thread has no id")
	}
	if t.Messages == nil {
		t.Messages = []threads.Message{}
	}
	return json.MarshalIndent(t, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}

// JSON is a shortcut for NewJSONExporter().Export(t).
func JSON(t threads.Thread) ([]byte, error) {
	return NewJSONExporter().Export(t)
}
