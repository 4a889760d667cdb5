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
	"strings"

	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
)

// ProcessDataSource is the query surface shared by all backends.
//
// Not found is always a normal result: record getters return false,
// name resolvers return false and id resolvers return -1. The only
// errors are *utils.TransportError, *utils.ConfigurationError and
// *utils.InitError.
type ProcessDataSource interface {
	Protocol() Protocol

	ListProcesses(ctx context.Context) ([]*types.ProcessInfo, error)

	// Returns false when the process no longer exists. A process with
	// no threads returns an empty list and true.
	ListThreads(ctx context.Context, pid int) ([]*types.ThreadRef, bool, error)

	GetInfo(ctx context.Context, pid int) (*types.ProcessInfo, bool, error)
	GetStatus(ctx context.Context, pid int) (*types.Status, bool, error)
	GetUsage(ctx context.Context, pid int) (*types.Usage, bool, error)
	GetThreadInfo(ctx context.Context, pid, lwpid int) (*types.ThreadInfo, bool, error)
	GetThreadStatus(ctx context.Context, pid, lwpid int) (*types.ThreadStatus, bool, error)
	GetThreadUsage(ctx context.Context, pid, lwpid int) (*types.Usage, bool, error)

	ResolveUserName(ctx context.Context, uid int) (string, bool, error)
	ResolveUserId(ctx context.Context, name string) (int, error)
	ResolveGroupName(ctx context.Context, gid int) (string, bool, error)
	ResolveGroupId(ctx context.Context, name string) (int, error)
	ResolveProjectName(ctx context.Context, id int) (string, bool, error)
	ResolveProjectId(ctx context.Context, name string) (int, error)
	ResolveZoneName(ctx context.Context, id int) (string, bool, error)
	ResolveZoneId(ctx context.Context, name string) (int, error)

	Close() error
}

type Protocol int

const (
	PROTOCOL_LOCAL Protocol = iota
	PROTOCOL_JSON
	PROTOCOL_XMLRPC
)

func (self Protocol) String() string {
	switch self {
	case PROTOCOL_LOCAL:
		return config.PROTOCOL_LOCAL
	case PROTOCOL_JSON:
		return config.PROTOCOL_JSON
	case PROTOCOL_XMLRPC:
		return config.PROTOCOL_XMLRPC
	}
	return "unknown"
}

func ParseProtocol(name string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case config.PROTOCOL_LOCAL:
		return PROTOCOL_LOCAL, nil
	case config.PROTOCOL_JSON, config.PROTOCOL_HTTP:
		return PROTOCOL_JSON, nil
	case config.PROTOCOL_XMLRPC:
		return PROTOCOL_XMLRPC, nil
	}
	return 0, utils.NewConfigurationError("Backend.protocol", name,
		"unsupported protocol")
}
