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

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/procwatch/filter"
	"www.velocidex.com/golang/procwatch/registry"
)

type filterFlags struct {
	user     *string
	zone     *string
	project  *string
	pid      *string
	task     *string
	contract *string
}

func addFilterFlags(command *kingpin.CmdClause) *filterFlags {
	return &filterFlags{
		user: command.Flag("user",
			"Only processes with this real uid or user name.").String(),
		zone: command.Flag("zone",
			"Only processes in this zone (id or name).").String(),
		project: command.Flag("project",
			"Only processes in this project (id or name).").String(),
		pid:  command.Flag("pid", "Only this process id.").String(),
		task: command.Flag("task", "Only processes in this task id.").String(),
		contract: command.Flag("contract",
			"Only processes in this contract id.").String(),
	}
}

func (self *filterFlags) apply(ctx context.Context,
	registry_obj *registry.ProcessRegistry, filter_obj *filter.Filter) error {

	if *self.user != "" {
		uid, err := resolveId(ctx, "user", *self.user, registry_obj.UserId)
		if err != nil {
			return err
		}
		filter_obj.SetUser(uid)
	}

	if *self.zone != "" {
		id, err := resolveId(ctx, "zone", *self.zone, registry_obj.ZoneId)
		if err != nil {
			return err
		}
		filter_obj.SetZone(id)
	}

	if *self.project != "" {
		id, err := resolveId(ctx, "project", *self.project, registry_obj.ProjectId)
		if err != nil {
			return err
		}
		filter_obj.SetProject(id)
	}

	for _, item := range []struct {
		kind  string
		value string
		set   func(int)
	}{
		{"pid", *self.pid, filter_obj.SetPid},
		{"task", *self.task, filter_obj.SetTask},
		{"contract", *self.contract, filter_obj.SetContract},
	} {
		if item.value == "" {
			continue
		}
		id, err := parseInt(item.kind, item.value)
		if err != nil {
			return err
		}
		item.set(id)
	}

	return nil
}
