// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the remote completion client for gatechat.
//
// The client speaks the OpenAI chat-completions wire format to any compatible
// endpoint. It sends one request per call: no retries, no streaming and no
// client-side timeout beyond the caller's context.
//
// # Key Types
//
//   - Client: HTTP client for the completions endpoint
//   - ChatMessage: one {role, content} entry of the request history
//   - RemoteError: non-2xx answer, rendered as "API error <status>: <body>"
//
// # Usage
//
//	client := cloud.NewClient(cloud.WithLogger(log))
//	reply, err := client.Complete(ctx, apiKey, "gpt-4o-mini", []cloud.ChatMessage{
//	    {Role: "user", Content: "Hello"},
//	})
//
// # Security
//
// API keys are never logged. Requests are logged by method, path and key
// fingerprint only, and response bodies are capped at MaxResponseSize.
package cloud
