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

// ThreadInfo carries the start time and consumed cpu of one thread.
type ThreadInfo struct {
	Pid       int   `json:"pid"`
	LwpId     int   `json:"lwpid"`
	StartTime int64 `json:"stime"`
	CPUSec    int64 `json:"etime"`
	CPUNsec   int64 `json:"ntime"`
}

type ThreadStatus struct {
	Pid      int   `json:"pid"`
	LwpId    int   `json:"lwpid"`
	UserSec  int64 `json:"utime"`
	UserNsec int64 `json:"nutime"`
	SysSec   int64 `json:"stime"`
	SysNsec  int64 `json:"nstime"`
}

// Status is the per-process timing record. Existing servers emit the
// pid under the "lwpid" key so we keep that on the wire.
type Status struct {
	Pid           int   `json:"lwpid"`
	UserSec       int64 `json:"utime"`
	UserNsec      int64 `json:"nutime"`
	SysSec        int64 `json:"stime"`
	SysNsec       int64 `json:"nstime"`
	ChildUserSec  int64 `json:"cutime"`
	ChildUserNsec int64 `json:"ncutime"`
	ChildSysSec   int64 `json:"cstime"`
	ChildSysNsec  int64 `json:"ncstime"`
}

// Usage holds resource counters for a process (LwpId 0) or a single
// thread.
type Usage struct {
	LwpId int `json:"lwpid"`
	Count int `json:"count"`

	RealSec  int64 `json:"rtime"`
	RealNsec int64 `json:"nrtime"`
	UserSec  int64 `json:"utime"`
	UserNsec int64 `json:"nutime"`
	SysSec   int64 `json:"stime"`
	SysNsec  int64 `json:"nstime"`

	MinorFaults int64 `json:"minf"`
	MajorFaults int64 `json:"majf"`
	Swaps       int64 `json:"nswap"`
	InBlocks    int64 `json:"inblk"`
	OutBlocks   int64 `json:"oublk"`
	MsgsSent    int64 `json:"msnd"`
	MsgsRecv    int64 `json:"mrcv"`
	Signals     int64 `json:"sigs"`
	VolCtx      int64 `json:"vctx"`
	InvolCtx    int64 `json:"ictx"`
	Syscalls    int64 `json:"sysc"`
	IOChars     int64 `json:"ioch"`
}
