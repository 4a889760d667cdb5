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
	"strconv"

	"www.velocidex.com/golang/procwatch/codec"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/transport"
	"www.velocidex.com/golang/procwatch/types"
)

// RemoteSource makes one transport call per operation and decodes
// the JSON payload. Malformed payloads are reported as not found.
type RemoteSource struct {
	protocol   Protocol
	transport  transport.Transport
	config_obj *config.Config
}

func NewRemoteSource(config_obj *config.Config,
	protocol Protocol, transport_obj transport.Transport) *RemoteSource {
	return &RemoteSource{
		protocol:   protocol,
		transport:  transport_obj,
		config_obj: config_obj,
	}
}

func (self *RemoteSource) Protocol() Protocol {
	return self.protocol
}

func (self *RemoteSource) call(ctx context.Context,
	method string, args ...int) (string, error) {
	str_args := make([]string, 0, len(args))
	for _, arg := range args {
		str_args = append(str_args, strconv.Itoa(arg))
	}
	return self.callString(ctx, method, str_args...)
}

func (self *RemoteSource) callString(ctx context.Context,
	method string, args ...string) (string, error) {
	remoteCallsCounter.WithLabelValues(method).Inc()

	payload, err := self.transport.Call(ctx, method, args...)
	if err != nil {
		remoteFailuresCounter.WithLabelValues(method).Inc()
		return "", err
	}
	return payload, nil
}

func (self *RemoteSource) decodeFailed(method string, err error) {
	kind := "unknown"
	decode_err, ok := err.(*codec.DecodeError)
	if ok {
		kind = decode_err.Kind
	}
	decodeFailuresCounter.WithLabelValues(kind).Inc()

	logger := logging.GetLogger(self.config_obj, &logging.ClientComponent)
	logger.Debug("%v: treating malformed payload as not found: %v",
		method, err)
}

func (self *RemoteSource) ListProcesses(
	ctx context.Context) ([]*types.ProcessInfo, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_PROCESSES)
	if err != nil {
		return nil, err
	}

	result, dropped, err := codec.DecodeProcessList(payload)
	if err != nil {
		decodeFailuresCounter.WithLabelValues(codec.KIND_PROCESS_INFO).Inc()
		logger := logging.GetLogger(self.config_obj, &logging.ClientComponent)
		logger.Warn("%v: malformed process list, using an empty snapshot: %v",
			constants.METHOD_GET_PROCESSES, err)
		return []*types.ProcessInfo{}, nil
	}

	if dropped > 0 {
		decodeFailuresCounter.WithLabelValues(codec.KIND_PROCESS_INFO).
			Add(float64(dropped))
		logger := logging.GetLogger(self.config_obj, &logging.ClientComponent)
		logger.Debug("%v: dropped %d malformed entries",
			constants.METHOD_GET_PROCESSES, dropped)
	}
	return result, nil
}

func (self *RemoteSource) ListThreads(
	ctx context.Context, pid int) ([]*types.ThreadRef, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_LWPS, pid)
	if err != nil {
		return nil, false, err
	}

	result, pres, dropped, err := codec.DecodeThreadList(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_LWPS, err)
		return nil, false, nil
	}

	if dropped > 0 {
		decodeFailuresCounter.WithLabelValues(codec.KIND_THREAD_REF).
			Add(float64(dropped))
	}
	return result, pres, nil
}

func (self *RemoteSource) GetInfo(
	ctx context.Context, pid int) (*types.ProcessInfo, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_INFO, pid)
	if err != nil {
		return nil, false, err
	}

	result, err := codec.DecodeProcessInfo(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_INFO, err)
		return nil, false, nil
	}
	return result, result != nil, nil
}

func (self *RemoteSource) GetStatus(
	ctx context.Context, pid int) (*types.Status, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_STATUS, pid)
	if err != nil {
		return nil, false, err
	}

	result, err := codec.DecodeStatus(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_STATUS, err)
		return nil, false, nil
	}
	return result, result != nil, nil
}

func (self *RemoteSource) GetUsage(
	ctx context.Context, pid int) (*types.Usage, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_USAGE, pid)
	if err != nil {
		return nil, false, err
	}

	result, err := codec.DecodeUsage(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_USAGE, err)
		return nil, false, nil
	}
	return result, result != nil, nil
}

func (self *RemoteSource) GetThreadInfo(
	ctx context.Context, pid, lwpid int) (*types.ThreadInfo, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_LWP_INFO, pid, lwpid)
	if err != nil {
		return nil, false, err
	}

	result, err := codec.DecodeThreadInfo(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_LWP_INFO, err)
		return nil, false, nil
	}
	return result, result != nil, nil
}

func (self *RemoteSource) GetThreadStatus(
	ctx context.Context, pid, lwpid int) (*types.ThreadStatus, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_LWP_STATUS, pid, lwpid)
	if err != nil {
		return nil, false, err
	}

	result, err := codec.DecodeThreadStatus(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_LWP_STATUS, err)
		return nil, false, nil
	}
	return result, result != nil, nil
}

func (self *RemoteSource) GetThreadUsage(
	ctx context.Context, pid, lwpid int) (*types.Usage, bool, error) {
	payload, err := self.call(ctx, constants.METHOD_GET_LWP_USAGE, pid, lwpid)
	if err != nil {
		return nil, false, err
	}

	result, err := codec.DecodeUsage(payload)
	if err != nil {
		self.decodeFailed(constants.METHOD_GET_LWP_USAGE, err)
		return nil, false, nil
	}
	return result, result != nil, nil
}

func (self *RemoteSource) resolveName(
	ctx context.Context, method string, id int) (string, bool, error) {
	payload, err := self.call(ctx, method, id)
	if err != nil {
		return "", false, err
	}

	name, pres, err := codec.DecodeName(payload)
	if err != nil {
		self.decodeFailed(method, err)
		return "", false, nil
	}
	return name, pres, nil
}

func (self *RemoteSource) resolveId(
	ctx context.Context, method string, name string) (int, error) {
	payload, err := self.callString(ctx, method, name)
	if err != nil {
		return -1, err
	}

	id, err := codec.DecodeId(payload)
	if err != nil {
		self.decodeFailed(method, err)
		return -1, nil
	}
	return id, nil
}

func (self *RemoteSource) ResolveUserName(
	ctx context.Context, uid int) (string, bool, error) {
	return self.resolveName(ctx, constants.METHOD_GET_USER_NAME, uid)
}

func (self *RemoteSource) ResolveUserId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(ctx, constants.METHOD_GET_USER_ID, name)
}

func (self *RemoteSource) ResolveGroupName(
	ctx context.Context, gid int) (string, bool, error) {
	return self.resolveName(ctx, constants.METHOD_GET_GROUP_NAME, gid)
}

func (self *RemoteSource) ResolveGroupId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(ctx, constants.METHOD_GET_GROUP_ID, name)
}

func (self *RemoteSource) ResolveProjectName(
	ctx context.Context, id int) (string, bool, error) {
	return self.resolveName(ctx, constants.METHOD_GET_PROJECT_NAME, id)
}

func (self *RemoteSource) ResolveProjectId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(ctx, constants.METHOD_GET_PROJECT_ID, name)
}

func (self *RemoteSource) ResolveZoneName(
	ctx context.Context, id int) (string, bool, error) {
	return self.resolveName(ctx, constants.METHOD_GET_ZONE_NAME, id)
}

func (self *RemoteSource) ResolveZoneId(
	ctx context.Context, name string) (int, error) {
	return self.resolveId(ctx, constants.METHOD_GET_ZONE_ID, name)
}

func (self *RemoteSource) Close() error {
	return self.transport.Close()
}
