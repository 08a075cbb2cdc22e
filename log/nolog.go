// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import luxlog "github.com/luxfi/log"

// NewNoOpLogger returns a Logger that drops every message.
func NewNoOpLogger() Logger {
	return luxlog.NewNoOpLogger()
}
