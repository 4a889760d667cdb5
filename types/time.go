/*
Velociraptor - Dig Deeper
Copyright (C) 2019-2025 Rapid7 Inc.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package types

import (
	"math"
	"time"
)

const nanosPerSecond = int64(time.Second)

// SplitSeconds turns fractional seconds into whole seconds and the
// nanosecond remainder. Negative input is clamped to zero.
func SplitSeconds(seconds float64) (int64, int64) {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0, 0
	}
	sec, frac := math.Modf(seconds)
	nsec := int64(math.Round(frac * float64(nanosPerSecond)))
	if nsec >= nanosPerSecond {
		return int64(sec) + 1, nsec - nanosPerSecond
	}
	return int64(sec), nsec
}

func SplitDuration(d time.Duration) (int64, int64) {
	if d <= 0 {
		return 0, 0
	}
	return int64(d / time.Second), int64(d % time.Second)
}

func JoinSeconds(sec, nsec int64) float64 {
	return float64(sec) + float64(nsec)/float64(nanosPerSecond)
}
