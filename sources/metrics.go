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

package sources

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteCallsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procwatch_remote_calls_total",
			Help: "Number of calls made to the remote backend.",
		},
		[]string{"method"},
	)

	remoteFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procwatch_remote_failures_total",
			Help: "Number of remote calls that failed in the transport.",
		},
		[]string{"method"},
	)

	decodeFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procwatch_decode_failures_total",
			Help: "Number of remote payloads that could not be decoded.",
		},
		[]string{"kind"},
	)

	localVanishedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "procwatch_local_vanished_total",
			Help: "Processes that exited while being listed.",
		})
)
