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

package filter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"www.velocidex.com/golang/procwatch/types"
)

// Population is the view of a tracker a filter needs.
type Population interface {
	Refresh(ctx context.Context) (bool, error)
	Members() []*types.ProcessInfo
}

// An unset field matches everything.
type field struct {
	name  string
	value int
	set   bool
}

func (self *field) Set(value int) {
	self.value = value
	self.set = true
}

func (self *field) Unset() {
	self.set = false
}

func (self *field) match(value int) bool {
	return !self.set || self.value == value
}

// Filter narrows a population down to the processes matching all the
// fields that are set. It keeps its own added and removed sets since
// changing the predicate changes the output without the population
// changing.
type Filter struct {
	population Population

	// Single process views never change. singleton is nil for an
	// empty one.
	fixed     bool
	singleton *types.ProcessInfo

	zone     field
	uid      field
	pid      field
	contract field
	task     field
	project  field

	members map[int]*types.ProcessInfo
	added   map[int]*types.ProcessInfo
	removed map[int]*types.ProcessInfo
}

func NewFilter(population Population) *Filter {
	return &Filter{
		population: population,
		zone:       field{name: "zone"},
		uid:        field{name: "uid"},
		pid:        field{name: "pid"},
		contract:   field{name: "contract"},
		task:       field{name: "task"},
		project:    field{name: "project"},
		members:    make(map[int]*types.ProcessInfo),
		added:      make(map[int]*types.ProcessInfo),
		removed:    make(map[int]*types.ProcessInfo),
	}
}

// NewProcessFilter is a view of exactly one process. Refreshing it
// does nothing. A nil info gives an empty view.
func NewProcessFilter(info *types.ProcessInfo) *Filter {
	result := NewFilter(nil)
	result.fixed = true
	result.singleton = info
	if info != nil {
		result.members[info.Pid] = info
	}
	return result
}

func (self *Filter) SetZone(id int)     { self.zone.Set(id) }
func (self *Filter) UnsetZone()         { self.zone.Unset() }
func (self *Filter) SetUser(uid int)    { self.uid.Set(uid) }
func (self *Filter) UnsetUser()         { self.uid.Unset() }
func (self *Filter) SetPid(pid int)     { self.pid.Set(pid) }
func (self *Filter) UnsetPid()          { self.pid.Unset() }
func (self *Filter) SetContract(id int) { self.contract.Set(id) }
func (self *Filter) UnsetContract()     { self.contract.Unset() }
func (self *Filter) SetTask(id int)     { self.task.Set(id) }
func (self *Filter) UnsetTask()         { self.task.Unset() }
func (self *Filter) SetProject(id int)  { self.project.Set(id) }
func (self *Filter) UnsetProject()      { self.project.Unset() }

// Fields are checked in a fixed order and the first mismatch wins.
func (self *Filter) matches(info *types.ProcessInfo) bool {
	return self.zone.match(info.ZoneId) &&
		self.uid.match(info.Uid) &&
		self.pid.match(info.Pid) &&
		self.contract.match(info.ContractId) &&
		self.task.match(info.TaskId) &&
		self.project.match(info.ProjectId)
}

// Refresh refreshes the population and then re-evaluates the filter.
func (self *Filter) Refresh(ctx context.Context) (bool, error) {
	if self.fixed || self.population == nil {
		return false, nil
	}

	_, err := self.population.Refresh(ctx)
	if err != nil {
		return false, err
	}
	return self.RefreshView(), nil
}

// RefreshView re-evaluates the filter against the population's
// current members without polling. Useful when several filters share
// one tracker.
func (self *Filter) RefreshView() bool {
	if self.fixed {
		return false
	}

	// A filter without a population has no members.
	candidates := []*types.ProcessInfo{}
	if self.population != nil {
		candidates = self.population.Members()
	}

	members := make(map[int]*types.ProcessInfo)
	for _, info := range candidates {
		// Members that vanished before we synced carry no attributes.
		if info == nil {
			continue
		}
		if self.matches(info) {
			members[info.Pid] = info
		}
	}

	added := make(map[int]*types.ProcessInfo)
	removed := make(map[int]*types.ProcessInfo)

	for pid, info := range members {
		_, pres := self.members[pid]
		if !pres {
			added[pid] = info
		}
	}

	for pid, info := range self.members {
		_, pres := members[pid]
		if !pres {
			removed[pid] = info
		}
	}

	self.members = members
	self.added = added
	self.removed = removed

	return len(added) > 0 || len(removed) > 0
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

func (self *Filter) Members() []*types.ProcessInfo {
	return sorted(self.members)
}

func (self *Filter) Added() []*types.ProcessInfo {
	return sorted(self.added)
}

func (self *Filter) Removed() []*types.ProcessInfo {
	return sorted(self.removed)
}

func (self *Filter) Contains(pid int) bool {
	_, pres := self.members[pid]
	return pres
}

func (self *Filter) Len() int {
	return len(self.members)
}

func (self *Filter) String() string {
	if self.fixed {
		if self.singleton == nil {
			return "none"
		}
		return fmt.Sprintf("pid=%d", self.singleton.Pid)
	}

	parts := []string{}
	for _, f := range []*field{&self.zone, &self.uid, &self.pid,
		&self.contract, &self.task, &self.project} {
		if f.set {
			parts = append(parts, fmt.Sprintf("%v=%d", f.name, f.value))
		}
	}

	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}
