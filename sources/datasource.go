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

	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/transport"
	"www.velocidex.com/golang/procwatch/types"
)

// DataSource selects one backend at construction and dispatches each
// call to it.
type DataSource struct {
	protocol Protocol
	local    *LocalSource
	remote   *RemoteSource
}

// NewDataSource builds the backend named in the config. Configuration
// problems are reported here rather than on first use. The local
// backend is initialized before being returned.
func NewDataSource(
	ctx context.Context, config_obj *config.Config) (*DataSource, error) {
	err := config_obj.Validate()
	if err != nil {
		return nil, err
	}

	protocol, err := ParseProtocol(config_obj.Backend.Protocol)
	if err != nil {
		return nil, err
	}

	switch protocol {
	case PROTOCOL_LOCAL:
		local := NewLocalSource(config_obj)
		err := local.Init(ctx)
		if err != nil {
			return nil, err
		}
		return NewLocalDataSource(local), nil

	default:
		transport_obj, err := transport.NewTransport(
			config_obj, protocol.String())
		if err != nil {
			return nil, err
		}
		return NewRemoteDataSource(
			NewRemoteSource(config_obj, protocol, transport_obj)), nil
	}
}

func NewLocalDataSource(local *LocalSource) *DataSource {
	return &DataSource{protocol: PROTOCOL_LOCAL, local: local}
}

func NewRemoteDataSource(remote *RemoteSource) *DataSource {
	return &DataSource{protocol: remote.Protocol(), remote: remote}
}

func (self *DataSource) Protocol() Protocol {
	return self.protocol
}

func (self *DataSource) ListProcesses(
	ctx context.Context) ([]*types.ProcessInfo, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ListProcesses(ctx)
	default:
		return self.remote.ListProcesses(ctx)
	}
}

func (self *DataSource) ListThreads(
	ctx context.Context, pid int) ([]*types.ThreadRef, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ListThreads(ctx, pid)
	default:
		return self.remote.ListThreads(ctx, pid)
	}
}

func (self *DataSource) GetInfo(
	ctx context.Context, pid int) (*types.ProcessInfo, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.GetInfo(ctx, pid)
	default:
		return self.remote.GetInfo(ctx, pid)
	}
}

func (self *DataSource) GetStatus(
	ctx context.Context, pid int) (*types.Status, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.GetStatus(ctx, pid)
	default:
		return self.remote.GetStatus(ctx, pid)
	}
}

func (self *DataSource) GetUsage(
	ctx context.Context, pid int) (*types.Usage, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.GetUsage(ctx, pid)
	default:
		return self.remote.GetUsage(ctx, pid)
	}
}

func (self *DataSource) GetThreadInfo(
	ctx context.Context, pid, lwpid int) (*types.ThreadInfo, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.GetThreadInfo(ctx, pid, lwpid)
	default:
		return self.remote.GetThreadInfo(ctx, pid, lwpid)
	}
}

func (self *DataSource) GetThreadStatus(
	ctx context.Context, pid, lwpid int) (*types.ThreadStatus, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.GetThreadStatus(ctx, pid, lwpid)
	default:
		return self.remote.GetThreadStatus(ctx, pid, lwpid)
	}
}

func (self *DataSource) GetThreadUsage(
	ctx context.Context, pid, lwpid int) (*types.Usage, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.GetThreadUsage(ctx, pid, lwpid)
	default:
		return self.remote.GetThreadUsage(ctx, pid, lwpid)
	}
}

func (self *DataSource) ResolveUserName(
	ctx context.Context, uid int) (string, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveUserName(ctx, uid)
	default:
		return self.remote.ResolveUserName(ctx, uid)
	}
}

func (self *DataSource) ResolveUserId(
	ctx context.Context, name string) (int, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveUserId(ctx, name)
	default:
		return self.remote.ResolveUserId(ctx, name)
	}
}

func (self *DataSource) ResolveGroupName(
	ctx context.Context, gid int) (string, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveGroupName(ctx, gid)
	default:
		return self.remote.ResolveGroupName(ctx, gid)
	}
}

func (self *DataSource) ResolveGroupId(
	ctx context.Context, name string) (int, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveGroupId(ctx, name)
	default:
		return self.remote.ResolveGroupId(ctx, name)
	}
}

func (self *DataSource) ResolveProjectName(
	ctx context.Context, id int) (string, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveProjectName(ctx, id)
	default:
		return self.remote.ResolveProjectName(ctx, id)
	}
}

func (self *DataSource) ResolveProjectId(
	ctx context.Context, name string) (int, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveProjectId(ctx, name)
	default:
		return self.remote.ResolveProjectId(ctx, name)
	}
}

func (self *DataSource) ResolveZoneName(
	ctx context.Context, id int) (string, bool, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveZoneName(ctx, id)
	default:
		return self.remote.ResolveZoneName(ctx, id)
	}
}

func (self *DataSource) ResolveZoneId(
	ctx context.Context, name string) (int, error) {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.ResolveZoneId(ctx, name)
	default:
		return self.remote.ResolveZoneId(ctx, name)
	}
}

func (self *DataSource) Close() error {
	switch self.protocol {
	case PROTOCOL_LOCAL:
		return self.local.Close()
	default:
		return self.remote.Close()
	}
}
