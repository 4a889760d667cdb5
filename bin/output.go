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
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"www.velocidex.com/golang/procwatch/json"
	"www.velocidex.com/golang/procwatch/registry"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
)

const (
	FORMAT_AUTO  = "auto"
	FORMAT_TABLE = "table"
	FORMAT_JSON  = "json"
)

// Tables are for people, pipes get json.
func resolveFormat(format string, out *os.File) string {
	if format != FORMAT_AUTO {
		return format
	}
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return FORMAT_TABLE
	}
	return FORMAT_JSON
}

var process_columns = []string{
	"Pid", "Ppid", "User", "Name", "Threads", "Size", "RSS", "CPU", "Start"}

// Falls back to the numeric id when the backend has no name.
func userName(ctx context.Context,
	registry_obj *registry.ProcessRegistry, uid int) string {
	name, err := registry_obj.UserName(ctx, uid)
	if err != nil {
		return strconv.Itoa(uid)
	}
	return name
}

func kbToBytes(kb int64) uint64 {
	if kb < 0 {
		return 0
	}
	return uint64(kb) * 1024
}

func processRow(ctx context.Context,
	registry_obj *registry.ProcessRegistry,
	info *types.ProcessInfo) *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Pid", info.Pid).
		Set("Ppid", info.Ppid).
		Set("User", userName(ctx, registry_obj, info.Uid)).
		Set("Name", info.Name).
		Set("Threads", info.NumThreads).
		Set("Size", kbToBytes(info.Size)).
		Set("RSS", kbToBytes(info.RSSize)).
		Set("CPU", info.CPUTime()).
		Set("Start", time.Unix(info.StartTime, 0).UTC())
}

func processCells(row *ordereddict.Dict) []string {
	result := make([]string, 0, len(process_columns))
	for _, column := range process_columns {
		value, _ := row.Get(column)
		switch t := value.(type) {
		case uint64:
			result = append(result, humanize.Bytes(t))
		case float64:
			result = append(result, fmt.Sprintf("%.2fs", t))
		case time.Time:
			result = append(result, humanize.Time(t))
		case string:
			result = append(result, utils.Elide(t, 40))
		default:
			result = append(result, fmt.Sprintf("%v", value))
		}
	}
	return result
}

func newTable(out io.Writer, columns []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func renderRows(out io.Writer, format string,
	columns []string, rows []*ordereddict.Dict,
	cells func(row *ordereddict.Dict) []string) error {
	switch format {
	case FORMAT_JSON:
		serialized, err := json.MarshalIndent(rows)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(serialized))
		return err

	case FORMAT_TABLE:
		table := newTable(out, columns)
		for _, row := range rows {
			table.Append(cells(row))
		}
		table.Render()
		return nil

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderProcesses(ctx context.Context, out io.Writer, format string,
	registry_obj *registry.ProcessRegistry, infos []*types.ProcessInfo) error {
	rows := make([]*ordereddict.Dict, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, processRow(ctx, registry_obj, info))
	}
	return renderRows(out, format, process_columns, rows, processCells)
}
