// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log re-exports github.com/luxfi/log's structured, zap-backed
// Logger so every coordination-core component depends on one local import
// path instead of sprinkling the upstream module path through the tree;
// NewNoOpLogger (nolog.go) supplies the test double.
package log

import luxlog "github.com/luxfi/log"

// Logger is the structured logger handle every component accepts from the
// runtime context; nothing in this module calls a package-level logger.
type Logger = luxlog.Logger
