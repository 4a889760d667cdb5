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
	"context"
	"sync"

	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
)

// MockDataSource replays scripted snapshots. Each ListProcesses()
// moves to the next queued snapshot and the last one repeats. Used by
// tests of the packages built on top of a data source.
type MockDataSource struct {
	mu sync.Mutex

	current []*types.ProcessInfo
	pending [][]*types.ProcessInfo

	Threads  map[int][]*types.ThreadRef
	Users    map[int]string
	Groups   map[int]string
	Projects map[int]string
	Zones    map[int]string

	err   error
	calls map[string]int
}

func NewMockDataSource(snapshots ...[]*types.ProcessInfo) *MockDataSource {
	return &MockDataSource{
		pending:  snapshots,
		Threads:  make(map[int][]*types.ThreadRef),
		Users:    make(map[int]string),
		Groups:   make(map[int]string),
		Projects: make(map[int]string),
		Zones:    make(map[int]string),
		calls:    make(map[string]int),
	}
}

func (self *MockDataSource) AddSnapshot(snapshot []*types.ProcessInfo) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.pending = append(self.pending, snapshot)
}

// SetError makes every following call fail in the transport. Pass
// nil to recover.
func (self *MockDataSource) SetError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.err = err
}

func (self *MockDataSource) Calls(method string) int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.calls[method]
}

// Must be called with the lock held.
func (self *MockDataSource) record(method string) error {
	self.calls[method]++
	if self.err != nil {
		return utils.NewTransportError(method, self.err)
	}
	return nil
}

func (self *MockDataSource) find(pid int) *types.ProcessInfo {
	for _, info := range self.current {
		if info.Pid == pid {
			return info
		}
	}
	return nil
}

func (self *MockDataSource) Protocol() Protocol {
	return PROTOCOL_LOCAL
}

func (self *MockDataSource) ListProcesses(
	ctx context.Context) ([]*types.ProcessInfo, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_PROCESSES)
	if err != nil {
		return nil, err
	}

	if len(self.pending) > 0 {
		self.current = self.pending[0]
		self.pending = self.pending[1:]
	}

	result := make([]*types.ProcessInfo, 0, len(self.current))
	for _, info := range self.current {
		result = append(result, info.Copy())
	}
	return result, nil
}

func (self *MockDataSource) ListThreads(
	ctx context.Context, pid int) ([]*types.ThreadRef, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_LWPS)
	if err != nil {
		return nil, false, err
	}

	if self.find(pid) == nil {
		return nil, false, nil
	}

	result := []*types.ThreadRef{}
	for _, ref := range self.Threads[pid] {
		result = append(result, &types.ThreadRef{Pid: ref.Pid, LwpId: ref.LwpId})
	}
	return result, true, nil
}

func (self *MockDataSource) GetInfo(
	ctx context.Context, pid int) (*types.ProcessInfo, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_INFO)
	if err != nil {
		return nil, false, err
	}

	info := self.find(pid)
	if info == nil {
		return nil, false, nil
	}
	return info.Copy(), true, nil
}

func (self *MockDataSource) GetStatus(
	ctx context.Context, pid int) (*types.Status, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_STATUS)
	if err != nil {
		return nil, false, err
	}

	info := self.find(pid)
	if info == nil {
		return nil, false, nil
	}
	return &types.Status{
		Pid:     pid,
		UserSec: info.CPUSec, UserNsec: info.CPUNsec,
	}, true, nil
}

func (self *MockDataSource) GetUsage(
	ctx context.Context, pid int) (*types.Usage, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_USAGE)
	if err != nil {
		return nil, false, err
	}

	info := self.find(pid)
	if info == nil {
		return nil, false, nil
	}
	return &types.Usage{
		Count:   info.NumThreads,
		UserSec: info.CPUSec, UserNsec: info.CPUNsec,
	}, true, nil
}

func (self *MockDataSource) findThread(pid, lwpid int) bool {
	if self.find(pid) == nil {
		return false
	}
	for _, ref := range self.Threads[pid] {
		if ref.LwpId == lwpid {
			return true
		}
	}
	return false
}

func (self *MockDataSource) GetThreadInfo(
	ctx context.Context, pid, lwpid int) (*types.ThreadInfo, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_LWP_INFO)
	if err != nil || !self.findThread(pid, lwpid) {
		return nil, false, err
	}
	return &types.ThreadInfo{
		Pid: pid, LwpId: lwpid, StartTime: self.find(pid).StartTime,
	}, true, nil
}

func (self *MockDataSource) GetThreadStatus(
	ctx context.Context, pid, lwpid int) (*types.ThreadStatus, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_LWP_STATUS)
	if err != nil || !self.findThread(pid, lwpid) {
		return nil, false, err
	}
	return &types.ThreadStatus{Pid: pid, LwpId: lwpid}, true, nil
}

func (self *MockDataSource) GetThreadUsage(
	ctx context.Context, pid, lwpid int) (*types.Usage, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(constants.METHOD_GET_LWP_USAGE)
	if err != nil || !self.findThread(pid, lwpid) {
		return nil, false, err
	}
	return &types.Usage{LwpId: lwpid, Count: 1}, true, nil
}

func (self *MockDataSource) resolveName(
	method string, table map[int]string, id int) (string, bool, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(method)
	if err != nil {
		return "", false, err
	}
	name, pres := table[id]
	return name, pres, nil
}

func (self *MockDataSource) resolveId(
	method string, table map[int]string, name string) (int, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	err := self.record(method)
	if err != nil {
		return -1, err
	}
	return reverseLookup(table, name), nil
}

func (self *MockDataSource) ResolveUserName(
	ctx context.Context, uid int) (string, bool, error) {
	return self.resolveName(constants.METHOD_GET_USER_NAME, self.Users, uid)
}

func (self *MockDataSource) ResolveUserId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(constants.METHOD_GET_USER_ID, self.Users, name)
}

func (self *MockDataSource) ResolveGroupName(
	ctx context.Context, gid int) (string, bool, error) {
	return self.resolveName(constants.METHOD_GET_GROUP_NAME, self.Groups, gid)
}

func (self *MockDataSource) ResolveGroupId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(constants.METHOD_GET_GROUP_ID, self.Groups, name)
}

func (self *MockDataSource) ResolveProjectName(
	ctx context.Context, id int) (string, bool, error) {
	return self.resolveName(constants.METHOD_GET_PROJECT_NAME, self.Projects, id)
}

func (self *MockDataSource) ResolveProjectId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(constants.METHOD_GET_PROJECT_ID, self.Projects, name)
}

func (self *MockDataSource) ResolveZoneName(
	ctx context.Context, id int) (string, bool, error) {
	return self.resolveName(constants.METHOD_GET_ZONE_NAME, self.Zones, id)
}

func (self *MockDataSource) ResolveZoneId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(constants.METHOD_GET_ZONE_ID, self.Zones, name)
}

func (self *MockDataSource) Close() error {
	return nil
}
