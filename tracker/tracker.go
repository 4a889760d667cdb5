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

/*
  The population tracker keeps the set of live processes between
  polls. Every Refresh() takes a full snapshot from the backend and
  diffs it against the previous one by pid. There is no background
  loop: callers decide how often to poll.
*/

package tracker

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"www.velocidex.com/golang/procwatch/types"
)

var (
	membersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "procwatch_tracker_members",
		Help: "Number of processes seen in the last snapshot.",
	})

	addedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procwatch_tracker_added_total",
		Help: "Processes that appeared between snapshots.",
	})

	removedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procwatch_tracker_removed_total",
		Help: "Processes that disappeared between snapshots.",
	})
)

// Lister is the part of a data source the tracker needs.
type Lister interface {
	ListProcesses(ctx context.Context) ([]*types.ProcessInfo, error)
}

type Option func(self *PopulationTracker)

// WithPidReuseDetection treats a pid whose start time changed between
// two snapshots as one process exiting and another starting. Reuse
// that happens and ends between two polls is still invisible.
func WithPidReuseDetection() Option {
	return func(self *PopulationTracker) {
		self.detect_reuse = true
	}
}

// PopulationTracker is not safe for concurrent refreshes.
type PopulationTracker struct {
	lister       Lister
	detect_reuse bool

	members map[int]*types.ProcessInfo
	added   map[int]*types.ProcessInfo
	removed map[int]*types.ProcessInfo
}

func NewPopulationTracker(lister Lister, opts ...Option) *PopulationTracker {
	result := &PopulationTracker{
		lister:  lister,
		members: make(map[int]*types.ProcessInfo),
		added:   make(map[int]*types.ProcessInfo),
		removed: make(map[int]*types.ProcessInfo),
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

// Refresh replaces the membership with a new snapshot and reports if
// anything was added or removed. When listing fails the previous
// state is kept.
func (self *PopulationTracker) Refresh(ctx context.Context) (bool, error) {
	snapshot, err := self.lister.ListProcesses(ctx)
	if err != nil {
		return false, err
	}

	// A pid can only appear once. If the backend repeats one, the
	// last entry wins.
	members := make(map[int]*types.ProcessInfo, len(snapshot))
	for _, info := range snapshot {
		if info != nil {
			members[info.Pid] = info
		}
	}

	added := make(map[int]*types.ProcessInfo)
	removed := make(map[int]*types.ProcessInfo)

	for pid, info := range members {
		old, pres := self.members[pid]
		if !pres {
			added[pid] = info
			continue
		}

		if self.detect_reuse && !old.SameIncarnation(info) {
			removed[pid] = old
			added[pid] = info
		}
	}

	for pid, old := range self.members {
		_, pres := members[pid]
		if !pres {
			removed[pid] = old
		}
	}

	self.members = members
	self.added = added
	self.removed = removed

	membersGauge.Set(float64(len(members)))
	addedCounter.Add(float64(len(added)))
	removedCounter.Add(float64(len(removed)))

	return len(added) > 0 || len(removed) > 0, nil
}

func sorted(set map[int]*types.ProcessInfo) []*types.ProcessInfo {
	result := make([]*types.ProcessInfo, 0, len(set))
	for _, info := range set {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Pid < result[j].Pid
	})
	return result
}

// Members returns the current snapshot ordered by pid.
func (self *PopulationTracker) Members() []*types.ProcessInfo {
	return sorted(self.members)
}

func (self *PopulationTracker) Added() []*types.ProcessInfo {
	return sorted(self.added)
}

func (self *PopulationTracker) Removed() []*types.ProcessInfo {
	return sorted(self.removed)
}

func (self *PopulationTracker) Get(pid int) (*types.ProcessInfo, bool) {
	info, pres := self.members[pid]
	return info, pres
}

func (self *PopulationTracker) Len() int {
	return len(self.members)
}

func (self *PopulationTracker) Pids() []int {
	result := make([]int, 0, len(self.members))
	for pid := range self.members {
		result = append(result, pid)
	}
	sort.Ints(result)
	return result
}
