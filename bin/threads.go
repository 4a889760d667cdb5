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

package main

import (
	"fmt"
	"os"

	"github.com/Velocidex/ordereddict"
	"www.velocidex.com/golang/procwatch/registry"
	"www.velocidex.com/golang/procwatch/types"
)

var (
	threads_command = app.Command("threads", "Show the threads of a process.")
	threads_pid     = threads_command.Arg("pid", "The process id.").
			Required().Int()
	threads_format = threads_command.Flag("format", "Output format.").
			Default(FORMAT_AUTO).Enum(FORMAT_AUTO, FORMAT_TABLE, FORMAT_JSON)
)

var thread_columns = []string{"Pid", "Lwp", "Start", "CPU", "User", "System"}

func threadCells(row *ordereddict.Dict) []string {
	result := []string{}
	for _, column := range thread_columns {
		value, _ := row.Get(column)
		switch t := value.(type) {
		case float64:
			result = append(result, fmt.Sprintf("%.2fs", t))
		default:
			result = append(result, fmt.Sprintf("%v", t))
		}
	}
	return result
}

func doThreads() error {
	config_obj, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := install_sig_handler()
	defer cancel()

	registry_obj, err := registry.NewProcessRegistry(ctx, config_obj)
	if err != nil {
		return err
	}
	defer registry_obj.Close()

	refs, pres, err := registry_obj.ListThreads(ctx, *threads_pid)
	if err != nil {
		return err
	}
	if !pres {
		return fmt.Errorf("process %d not found", *threads_pid)
	}

	rows := []*ordereddict.Dict{}
	for _, ref := range refs {
		row := ordereddict.NewDict().
			Set("Pid", ref.Pid).
			Set("Lwp", ref.LwpId)

		// Threads may exit between the listing and the detail calls.
		info, pres, err := registry_obj.GetThreadInfo(ctx, ref.Pid, ref.LwpId)
		if err != nil {
			return err
		}
		if !pres {
			continue
		}
		row.Set("Start", info.StartTime).
			Set("CPU", types.JoinSeconds(info.CPUSec, info.CPUNsec))

		status, pres, err := registry_obj.GetThreadStatus(ctx, ref.Pid, ref.LwpId)
		if err != nil {
			return err
		}
		if pres {
			row.Set("User", types.JoinSeconds(status.UserSec, status.UserNsec)).
				Set("System", types.JoinSeconds(status.SysSec, status.SysNsec))
		} else {
			row.Set("User", 0.0).Set("System", 0.0)
		}
		rows = append(rows, row)
	}

	return renderRows(os.Stdout, resolveFormat(*threads_format, os.Stdout),
		thread_columns, rows, threadCells)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case threads_command.FullCommand():
			FatalIfError(threads_command, doThreads)

		default:
			return false
		}
		return true
	})
}
