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

package registry

import (
	"context"

	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/identity"
	"www.velocidex.com/golang/procwatch/sources"
	"www.velocidex.com/golang/procwatch/types"
)

// ProcessRegistry is the entry point for callers. Id to name lookups
// go through a cache owned by the registry. Everything else goes
// straight to the backend.
type ProcessRegistry struct {
	source sources.ProcessDataSource
	cache  *identity.Cache
}

// NewProcessRegistry selects the backend from the config. An
// unsupported protocol fails here and not on first use.
func NewProcessRegistry(
	ctx context.Context, config_obj *config.Config) (*ProcessRegistry, error) {
	source, err := sources.NewDataSource(ctx, config_obj)
	if err != nil {
		return nil, err
	}
	return NewRegistryForSource(source), nil
}

func NewRegistryForSource(source sources.ProcessDataSource) *ProcessRegistry {
	return &ProcessRegistry{
		source: source,
		cache:  identity.NewCache(source),
	}
}

func (self *ProcessRegistry) Source() sources.ProcessDataSource {
	return self.source
}

func (self *ProcessRegistry) Protocol() sources.Protocol {
	return self.source.Protocol()
}

func (self *ProcessRegistry) ListProcesses(
	ctx context.Context) ([]*types.ProcessInfo, error) {
	return self.source.ListProcesses(ctx)
}

func (self *ProcessRegistry) ListThreads(
	ctx context.Context, pid int) ([]*types.ThreadRef, bool, error) {
	return self.source.ListThreads(ctx, pid)
}

func (self *ProcessRegistry) GetInfo(
	ctx context.Context, pid int) (*types.ProcessInfo, bool, error) {
	return self.source.GetInfo(ctx, pid)
}

func (self *ProcessRegistry) GetStatus(
	ctx context.Context, pid int) (*types.Status, bool, error) {
	return self.source.GetStatus(ctx, pid)
}

func (self *ProcessRegistry) GetUsage(
	ctx context.Context, pid int) (*types.Usage, bool, error) {
	return self.source.GetUsage(ctx, pid)
}

func (self *ProcessRegistry) GetThreadInfo(
	ctx context.Context, pid, lwpid int) (*types.ThreadInfo, bool, error) {
	return self.source.GetThreadInfo(ctx, pid, lwpid)
}

func (self *ProcessRegistry) GetThreadStatus(
	ctx context.Context, pid, lwpid int) (*types.ThreadStatus, bool, error) {
	return self.source.GetThreadStatus(ctx, pid, lwpid)
}

func (self *ProcessRegistry) GetThreadUsage(
	ctx context.Context, pid, lwpid int) (*types.Usage, bool, error) {
	return self.source.GetThreadUsage(ctx, pid, lwpid)
}

// Name getters never report not found: an id without a name is
// returned as its decimal string.
func (self *ProcessRegistry) UserName(ctx context.Context, uid int) (string, error) {
	return self.cache.UserName(ctx, uid)
}

func (self *ProcessRegistry) GroupName(ctx context.Context, gid int) (string, error) {
	return self.cache.GroupName(ctx, gid)
}

func (self *ProcessRegistry) ProjectName(ctx context.Context, id int) (string, error) {
	return self.cache.ProjectName(ctx, id)
}

func (self *ProcessRegistry) ZoneName(ctx context.Context, id int) (string, error) {
	return self.cache.ZoneName(ctx, id)
}

// Id getters are not cached and return -1 for unknown names.
func (self *ProcessRegistry) UserId(ctx context.Context, name string) (int, error) {
	return self.source.ResolveUserId(ctx, name)
}

func (self *ProcessRegistry) GroupId(ctx context.Context, name string) (int, error) {
	return self.source.ResolveGroupId(ctx, name)
}

func (self *ProcessRegistry) ProjectId(ctx context.Context, name string) (int, error) {
	return self.source.ResolveProjectId(ctx, name)
}

func (self *ProcessRegistry) ZoneId(ctx context.Context, name string) (int, error) {
	return self.source.ResolveZoneId(ctx, name)
}

func (self *ProcessRegistry) CacheStats() []identity.Stats {
	return self.cache.Stats()
}

func (self *ProcessRegistry) Close() error {
	self.cache.Close()
	return self.source.Close()
}
