// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decides whether console output may carry ANSI colour codes
// and wraps strings in them.
//
// Colour is off when NO_COLOR is set, forced on when FORCE_COLOR is set,
// and otherwise follows whether stdout is a terminal (golang.org/x/term).
package color
