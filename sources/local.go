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
	"os"
	"os/user"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-errors/errors"
	"github.com/prometheus/procfs"
	"github.com/shirou/gopsutil/v4/common"
	"github.com/shirou/gopsutil/v4/process"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
)

// Kernel times in /proc/<pid>/stat are reported in clock ticks.
const userHZ = 100

var errNotInitialized = errors.New("Init() was not called")

// LocalSource reads the process table of this host through gopsutil
// and procfs. It must be initialized with Init() before use.
type LocalSource struct {
	mu          sync.Mutex
	initialized bool
	fs          procfs.FS
	boot_time   uint64

	config_obj *config.Config
	proc_root  string
	projects   map[int]string
	zones      map[int]string
	clock      utils.Clock
}

func NewLocalSource(config_obj *config.Config) *LocalSource {
	result := &LocalSource{
		config_obj: config_obj,
		proc_root:  constants.DEFAULT_PROC_ROOT,
		projects:   make(map[int]string),
		zones:      make(map[int]string),
		clock:      utils.RealClock{},
	}

	if config_obj.Local != nil {
		if config_obj.Local.ProcRoot != "" {
			result.proc_root = config_obj.Local.ProcRoot
		}
		for k, v := range config_obj.Local.Projects {
			result.projects[k] = v
		}
		for k, v := range config_obj.Local.Zones {
			result.zones[k] = v
		}
	}
	return result
}

func (self *LocalSource) SetClock(clock utils.Clock) {
	self.clock = clock
}

// Init opens the proc filesystem and checks that processes can be
// enumerated. It is safe to call more than once.
func (self *LocalSource) Init(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.initialized {
		return nil
	}

	fs, err := procfs.NewFS(self.proc_root)
	if err != nil {
		return &utils.InitError{Backend: "local", Err: err}
	}

	stat, err := fs.Stat()
	if err != nil {
		return &utils.InitError{Backend: "local", Err: err}
	}

	_, err = process.PidsWithContext(self.envContext(ctx))
	if err != nil {
		return &utils.InitError{Backend: "local", Err: err}
	}

	self.fs = fs
	self.boot_time = stat.BootTime
	self.initialized = true

	logger := logging.GetLogger(self.config_obj, &logging.GenericComponent)
	logger.Debug("LocalSource: reading processes from %v (boot time %v)",
		self.proc_root, self.boot_time)
	return nil
}

func (self *LocalSource) ready() (procfs.FS, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if !self.initialized {
		return procfs.FS{}, &utils.InitError{
			Backend: "local", Err: errNotInitialized}
	}
	return self.fs, nil
}

// gopsutil reads the proc mount point from the context.
func (self *LocalSource) envContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, common.EnvKey,
		common.EnvMap{common.HostProcEnvKey: self.proc_root})
}

func (self *LocalSource) Protocol() Protocol {
	return PROTOCOL_LOCAL
}

func isGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ESRCH)
}

// Returns nil when the error means the process is gone, otherwise a
// transport failure for op.
func classify(op string, err error) error {
	if isGone(err) {
		return nil
	}
	return utils.NewTransportError(op, errors.Wrap(err, 0))
}

// Counters we are not allowed to read are reported as zero.
func optional(err error) error {
	if err != nil && errors.Is(err, os.ErrPermission) {
		return nil
	}
	return err
}

func (self *LocalSource) ListProcesses(
	ctx context.Context) ([]*types.ProcessInfo, error) {
	fs, err := self.ready()
	if err != nil {
		return nil, err
	}

	ctx = self.envContext(ctx)
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, utils.NewTransportError(
			constants.METHOD_GET_PROCESSES, errors.Wrap(err, 0))
	}

	result := make([]*types.ProcessInfo, 0, len(pids))
	for _, pid := range pids {
		if ctx.Err() != nil {
			return nil, utils.NewTransportError(
				constants.METHOD_GET_PROCESSES, ctx.Err())
		}

		info, pres, err := self.getInfo(ctx, fs, int(pid))
		if err != nil {
			return nil, err
		}

		// The process exited while we were listing.
		if !pres {
			localVanishedCounter.Inc()
			continue
		}
		result = append(result, info)
	}
	return result, nil
}

func (self *LocalSource) ListThreads(
	ctx context.Context, pid int) ([]*types.ThreadRef, bool, error) {
	_, err := self.ready()
	if err != nil {
		return nil, false, err
	}

	op := constants.METHOD_GET_LWPS
	ctx = self.envContext(ctx)
	proc_obj, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, false, classify(op, err)
	}

	threads, err := proc_obj.ThreadsWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}

	tids := make([]int, 0, len(threads))
	for tid := range threads {
		tids = append(tids, int(tid))
	}
	sort.Ints(tids)

	result := make([]*types.ThreadRef, 0, len(tids))
	for _, tid := range tids {
		result = append(result, &types.ThreadRef{Pid: pid, LwpId: tid})
	}
	return result, true, nil
}

func (self *LocalSource) GetInfo(
	ctx context.Context, pid int) (*types.ProcessInfo, bool, error) {
	fs, err := self.ready()
	if err != nil {
		return nil, false, err
	}
	return self.getInfo(self.envContext(ctx), fs, pid)
}

func (self *LocalSource) getInfo(ctx context.Context,
	fs procfs.FS, pid int) (*types.ProcessInfo, bool, error) {
	op := constants.METHOD_GET_INFO

	proc_obj, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, false, classify(op, err)
	}

	result := &types.ProcessInfo{Pid: pid}

	result.Name, err = proc_obj.NameWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}

	ppid, err := proc_obj.PpidWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.Ppid = int(ppid)

	uids, err := proc_obj.UidsWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	if len(uids) >= 2 {
		result.Uid = int(uids[0])
		result.Euid = int(uids[1])
	}

	gids, err := proc_obj.GidsWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	if len(gids) >= 2 {
		result.Gid = int(gids[0])
		result.Egid = int(gids[1])
	}

	num_threads, err := proc_obj.NumThreadsWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.NumThreads = int(num_threads)

	mem, err := proc_obj.MemoryInfoWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.Size = int64(mem.VMS / 1024)
	result.RSSize = int64(mem.RSS / 1024)

	create_ms, err := proc_obj.CreateTimeWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.StartTime = create_ms / 1000

	times, err := proc_obj.TimesWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.CPUSec, result.CPUNsec = types.SplitSeconds(times.User + times.System)

	proc, err := fs.Proc(pid)
	if err != nil {
		return nil, false, classify(op, err)
	}

	stat, err := proc.Stat()
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.ChildCPUSec, result.ChildCPUNsec = types.SplitSeconds(
		float64(stat.CUTime+stat.CSTime) / userHZ)

	// Linux has no tasks or contracts: the process group and the
	// session play the same role.
	result.TaskId = stat.PGRP
	result.ContractId = stat.Session

	return result, true, nil
}

func (self *LocalSource) GetStatus(
	ctx context.Context, pid int) (*types.Status, bool, error) {
	fs, err := self.ready()
	if err != nil {
		return nil, false, err
	}

	op := constants.METHOD_GET_STATUS
	ctx = self.envContext(ctx)
	proc_obj, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, false, classify(op, err)
	}

	times, err := proc_obj.TimesWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}

	proc, err := fs.Proc(pid)
	if err != nil {
		return nil, false, classify(op, err)
	}

	stat, err := proc.Stat()
	if err != nil {
		return nil, false, classify(op, err)
	}

	result := &types.Status{Pid: pid}
	result.UserSec, result.UserNsec = types.SplitSeconds(times.User)
	result.SysSec, result.SysNsec = types.SplitSeconds(times.System)
	result.ChildUserSec, result.ChildUserNsec = types.SplitSeconds(
		float64(stat.CUTime) / userHZ)
	result.ChildSysSec, result.ChildSysNsec = types.SplitSeconds(
		float64(stat.CSTime) / userHZ)

	return result, true, nil
}

func (self *LocalSource) GetUsage(
	ctx context.Context, pid int) (*types.Usage, bool, error) {
	fs, err := self.ready()
	if err != nil {
		return nil, false, err
	}

	op := constants.METHOD_GET_USAGE
	ctx = self.envContext(ctx)
	proc_obj, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, false, classify(op, err)
	}

	result := &types.Usage{}

	num_threads, err := proc_obj.NumThreadsWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.Count = int(num_threads)

	create_ms, err := proc_obj.CreateTimeWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.RealSec, result.RealNsec = self.elapsed(
		time.UnixMilli(create_ms))

	times, err := proc_obj.TimesWithContext(ctx)
	if err != nil {
		return nil, false, classify(op, err)
	}
	result.UserSec, result.UserNsec = types.SplitSeconds(times.User)
	result.SysSec, result.SysNsec = types.SplitSeconds(times.System)

	faults, err := proc_obj.PageFaultsWithContext(ctx)
	if err = optional(err); err != nil {
		return nil, false, classify(op, err)
	}
	if faults != nil {
		result.MinorFaults = int64(faults.MinorFaults)
		result.MajorFaults = int64(faults.MajorFaults)
	}

	switches, err := proc_obj.NumCtxSwitchesWithContext(ctx)
	if err = optional(err); err != nil {
		return nil, false, classify(op, err)
	}
	if switches != nil {
		result.VolCtx = switches.Voluntary
		result.InvolCtx = switches.Involuntary
	}

	proc, err := fs.Proc(pid)
	if err != nil {
		return nil, false, classify(op, err)
	}

	err = fillIO(result, proc)
	if err != nil {
		return nil, false, classify(op, err)
	}

	return result, true, nil
}

// /proc/<pid>/io is only readable by the owner.
func fillIO(result *types.Usage, proc procfs.Proc) error {
	io, err := proc.IO()
	if err != nil {
		return optional(err)
	}
	result.InBlocks = int64(io.ReadBytes / 512)
	result.OutBlocks = int64(io.WriteBytes / 512)
	result.Syscalls = int64(io.SyscR + io.SyscW)
	result.IOChars = int64(io.RChar + io.WChar)
	return nil
}

func (self *LocalSource) elapsed(start time.Time) (int64, int64) {
	return types.SplitDuration(self.clock.Now().Sub(start))
}

func (self *LocalSource) threadStat(pid, lwpid int) (
	procfs.Proc, procfs.ProcStat, error) {
	fs, err := self.ready()
	if err != nil {
		return procfs.Proc{}, procfs.ProcStat{}, err
	}

	thread, err := fs.Thread(pid, lwpid)
	if err != nil {
		return procfs.Proc{}, procfs.ProcStat{}, err
	}

	stat, err := thread.Stat()
	if err != nil {
		return procfs.Proc{}, procfs.ProcStat{}, err
	}
	return thread, stat, nil
}

// Thread procs live under /proc/<pid>/task so procfs cannot find
// the boot time on its own.
func (self *LocalSource) threadStart(stat procfs.ProcStat) float64 {
	return float64(self.boot_time) + float64(stat.Starttime)/userHZ
}

func (self *LocalSource) threadError(op string, err error) error {
	if utils.IsInitError(err) {
		return err
	}
	return classify(op, err)
}

func (self *LocalSource) GetThreadInfo(
	ctx context.Context, pid, lwpid int) (*types.ThreadInfo, bool, error) {
	op := constants.METHOD_GET_LWP_INFO
	_, stat, err := self.threadStat(pid, lwpid)
	if err != nil {
		return nil, false, self.threadError(op, err)
	}

	result := &types.ThreadInfo{
		Pid:       pid,
		LwpId:     lwpid,
		StartTime: int64(self.threadStart(stat)),
	}
	result.CPUSec, result.CPUNsec = types.SplitSeconds(stat.CPUTime())
	return result, true, nil
}

func (self *LocalSource) GetThreadStatus(
	ctx context.Context, pid, lwpid int) (*types.ThreadStatus, bool, error) {
	op := constants.METHOD_GET_LWP_STATUS
	_, stat, err := self.threadStat(pid, lwpid)
	if err != nil {
		return nil, false, self.threadError(op, err)
	}

	result := &types.ThreadStatus{Pid: pid, LwpId: lwpid}
	result.UserSec, result.UserNsec = types.SplitSeconds(
		float64(stat.UTime) / userHZ)
	result.SysSec, result.SysNsec = types.SplitSeconds(
		float64(stat.STime) / userHZ)
	return result, true, nil
}

func (self *LocalSource) GetThreadUsage(
	ctx context.Context, pid, lwpid int) (*types.Usage, bool, error) {
	op := constants.METHOD_GET_LWP_USAGE
	thread, stat, err := self.threadStat(pid, lwpid)
	if err != nil {
		return nil, false, self.threadError(op, err)
	}

	start := self.threadStart(stat)
	result := &types.Usage{
		LwpId:       lwpid,
		Count:       1,
		MinorFaults: int64(stat.MinFlt),
		MajorFaults: int64(stat.MajFlt),
	}
	result.RealSec, result.RealNsec = self.elapsed(
		time.Unix(0, int64(start*float64(time.Second))))
	result.UserSec, result.UserNsec = types.SplitSeconds(
		float64(stat.UTime) / userHZ)
	result.SysSec, result.SysNsec = types.SplitSeconds(
		float64(stat.STime) / userHZ)

	status, err := thread.NewStatus()
	if err = optional(err); err != nil {
		return nil, false, classify(op, err)
	}
	result.VolCtx = int64(status.VoluntaryCtxtSwitches)
	result.InvolCtx = int64(status.NonVoluntaryCtxtSwitches)

	err = fillIO(result, thread)
	if err != nil {
		return nil, false, classify(op, err)
	}

	return result, true, nil
}

func (self *LocalSource) ResolveUserName(
	ctx context.Context, uid int) (string, bool, error) {
	if _, err := self.ready(); err != nil {
		return "", false, err
	}

	user_obj, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		switch err.(type) {
		case user.UnknownUserIdError, user.UnknownUserError:
			return "", false, nil
		}
		return "", false, utils.NewTransportError(
			constants.METHOD_GET_USER_NAME, errors.Wrap(err, 0))
	}
	return user_obj.Username, true, nil
}

func (self *LocalSource) ResolveUserId(
	ctx context.Context, name string) (int, error) {
	if _, err := self.ready(); err != nil {
		return -1, err
	}

	user_obj, err := user.Lookup(name)
	if err != nil {
		switch err.(type) {
		case user.UnknownUserError, user.UnknownUserIdError:
			return -1, nil
		}
		return -1, utils.NewTransportError(
			constants.METHOD_GET_USER_ID, errors.Wrap(err, 0))
	}
	return parseId(user_obj.Uid), nil
}

func (self *LocalSource) ResolveGroupName(
	ctx context.Context, gid int) (string, bool, error) {
	if _, err := self.ready(); err != nil {
		return "", false, err
	}

	group, err := user.LookupGroupId(strconv.Itoa(gid))
	if err != nil {
		switch err.(type) {
		case user.UnknownGroupIdError, user.UnknownGroupError:
			return "", false, nil
		}
		return "", false, utils.NewTransportError(
			constants.METHOD_GET_GROUP_NAME, errors.Wrap(err, 0))
	}
	return group.Name, true, nil
}

func (self *LocalSource) ResolveGroupId(
	ctx context.Context, name string) (int, error) {
	if _, err := self.ready(); err != nil {
		return -1, err
	}

	group, err := user.LookupGroup(name)
	if err != nil {
		switch err.(type) {
		case user.UnknownGroupError, user.UnknownGroupIdError:
			return -1, nil
		}
		return -1, utils.NewTransportError(
			constants.METHOD_GET_GROUP_ID, errors.Wrap(err, 0))
	}
	return parseId(group.Gid), nil
}

func parseId(id string) int {
	result, err := strconv.Atoi(id)
	if err != nil {
		return -1
	}
	return result
}

func (self *LocalSource) ResolveProjectName(
	ctx context.Context, id int) (string, bool, error) {
	if _, err := self.ready(); err != nil {
		return "", false, err
	}
	name, pres := self.projects[id]
	return name, pres, nil
}

func (self *LocalSource) ResolveProjectId(
	ctx context.Context, name string) (int, error) {
	if _, err := self.ready(); err != nil {
		return -1, err
	}
	return reverseLookup(self.projects, name), nil
}

func (self *LocalSource) ResolveZoneName(
	ctx context.Context, id int) (string, bool, error) {
	if _, err := self.ready(); err != nil {
		return "", false, err
	}
	name, pres := self.zones[id]
	return name, pres, nil
}

func (self *LocalSource) ResolveZoneId(
	ctx context.Context, name string) (int, error) {
	if _, err := self.ready(); err != nil {
		return -1, err
	}
	return reverseLookup(self.zones, name), nil
}

// Lowest id wins when a name is listed twice.
func reverseLookup(table map[int]string, name string) int {
	result := -1
	for id, v := range table {
		if v == name && (result < 0 || id < result) {
			result = id
		}
	}
	return result
}

func (self *LocalSource) Close() error {
	return nil
}
