// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes to stdout through PrettyHandler, which prefixes
// every line with a timestamp and renders attributes as JSON. The level is
// read from SQLROLL_LOG_LEVEL and can be changed at runtime through LevelVar.
package ctxlog
