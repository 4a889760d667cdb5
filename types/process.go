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

import "fmt"

// ProcessInfo is a snapshot of a single process. Two snapshots with
// the same Pid describe the same logical process even when every
// other field differs.
type ProcessInfo struct {
	Name       string `json:"fname"`
	Pid        int    `json:"pid"`
	Ppid       int    `json:"ppid"`
	Uid        int    `json:"uid"`
	Euid       int    `json:"euid"`
	Gid        int    `json:"gid"`
	Egid       int    `json:"egid"`
	NumThreads int    `json:"nlwp"`

	// Virtual and resident size in kilobytes.
	Size   int64 `json:"size"`
	RSSize int64 `json:"rssize"`

	// Start time in seconds since the epoch.
	StartTime int64 `json:"stime"`

	// User + system cpu time split into seconds and the nanosecond
	// remainder.
	CPUSec  int64 `json:"etime"`
	CPUNsec int64 `json:"ntime"`

	// Same split for reaped children.
	ChildCPUSec  int64 `json:"ectime"`
	ChildCPUNsec int64 `json:"nctime"`

	TaskId     int `json:"taskid"`
	ProjectId  int `json:"projid"`
	ZoneId     int `json:"zoneid"`
	ContractId int `json:"contract"`
}

func (self *ProcessInfo) String() string {
	return fmt.Sprintf("%v (%d)", self.Name, self.Pid)
}

func (self *ProcessInfo) SameIdentity(other *ProcessInfo) bool {
	if self == nil || other == nil {
		return false
	}
	return self.Pid == other.Pid
}

// A reused pid shows up as a changed start time.
func (self *ProcessInfo) SameIncarnation(other *ProcessInfo) bool {
	return self.SameIdentity(other) && self.StartTime == other.StartTime
}

// CPUTime returns the total user+system cpu time in seconds.
func (self *ProcessInfo) CPUTime() float64 {
	return JoinSeconds(self.CPUSec, self.CPUNsec)
}

func (self *ProcessInfo) Copy() *ProcessInfo {
	result := *self
	return &result
}

// ThreadRef names a thread without fetching its detail.
type ThreadRef struct {
	Pid   int `json:"pid"`
	LwpId int `json:"lwpid"`
}

type ThreadKey struct {
	Pid   int
	LwpId int
}

func (self *ThreadRef) Key() ThreadKey {
	return ThreadKey{Pid: self.Pid, LwpId: self.LwpId}
}

func (self *ThreadRef) String() string {
	return fmt.Sprintf("%d/%d", self.Pid, self.LwpId)
}
