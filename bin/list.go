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
	"os"

	"www.velocidex.com/golang/procwatch/filter"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/registry"
	"www.velocidex.com/golang/procwatch/tracker"
)

var (
	list_command = app.Command("list", "List the processes matching a filter.")
	list_filter  = addFilterFlags(list_command)
	list_format  = list_command.Flag("format", "Output format.").
			Default(FORMAT_AUTO).Enum(FORMAT_AUTO, FORMAT_TABLE, FORMAT_JSON)
)

func doList() error {
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

	filter_obj := filter.NewFilter(tracker.NewPopulationTracker(registry_obj))
	err = list_filter.apply(ctx, registry_obj, filter_obj)
	if err != nil {
		return err
	}

	_, err = filter_obj.Refresh(ctx)
	if err != nil {
		return err
	}

	logger := logging.GetLogger(config_obj, &logging.ToolComponent)
	logger.Debug("list: %v matched %d processes", filter_obj, filter_obj.Len())

	err = renderProcesses(ctx, os.Stdout, resolveFormat(*list_format, os.Stdout),
		registry_obj, filter_obj.Members())
	if err != nil {
		return err
	}

	for _, stats := range registry_obj.CacheStats() {
		logger.Debug("list: %v name cache size=%d hits=%d misses=%d",
			stats.Kind, stats.Size, stats.Hits, stats.Misses)
	}
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case list_command.FullCommand():
			FatalIfError(list_command, doList)

		default:
			return false
		}
		return true
	})
}
