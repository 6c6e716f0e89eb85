// Copyright (c) 2025 Jagapathi Vallapuri
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages the client configuration.
//
// Configuration sources, in order of precedence:
//   - Environment variables (DOCCHAT_*)
//   - ~/.docchat/config.toml
//   - Built-in defaults
//
// The file can be watched for changes so a running client picks up edits
// without restarting.
package config
