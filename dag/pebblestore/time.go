// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package pebblestore

import "time"

func nsecToTime(nsec int64) time.Time {
	return time.Unix(0, nsec).UTC()
}
