// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gatechat.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - StorageConfig: Which store backend holds chats and where
//   - APIConfig: Completion endpoint, default model and temperature
//   - UIConfig, LogConfig: Surface and logging settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GATECHAT_*), including ones set in a .env file
//   - ~/.gatechat/config.toml (GATECHAT_HOME moves the directory)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	path, _ := cfg.StoragePath()
package config
