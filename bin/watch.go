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
	"time"

	"www.velocidex.com/golang/procwatch/filter"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/registry"
	"www.velocidex.com/golang/procwatch/tracker"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
)

var (
	watch_command  = app.Command("watch", "Report processes as they start and exit.")
	watch_filter   = addFilterFlags(watch_command)
	watch_interval = watch_command.Flag("interval", "Time between polls.").
			Default("5s").Duration()
	watch_count = watch_command.Flag("count",
		"Stop after this many polls. 0 polls forever.").Default("0").Int()
	watch_reuse = watch_command.Flag("detect_pid_reuse",
		"Report a process whose pid was reused as an exit and a start.").Bool()
)

type watcher struct {
	filter   *filter.Filter
	clock    utils.Clock
	interval time.Duration
	count    int
	out      io.Writer
	logger   *logging.LogContext
}

func (self *watcher) report(now time.Time, prefix string,
	infos []*types.ProcessInfo) {
	for _, info := range infos {
		fmt.Fprintf(self.out, "%v %s %v uid=%d\n",
			now.UTC().Format(time.RFC3339), prefix, info, info.Uid)
	}
}

// Run polls until ctx is done or count polls were made. A failed poll
// is logged and the previous view kept.
func (self *watcher) Run(ctx context.Context) error {
	for cycle := 0; self.count == 0 || cycle < self.count; cycle++ {
		if cycle > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-self.clock.After(self.interval):
			}
		}

		_, err := self.filter.Refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			self.logger.Warn("watch: poll failed: %v", err)
			continue
		}

		now := self.clock.Now()
		if cycle == 0 {
			fmt.Fprintf(self.out, "%v watching %d processes (%v)\n",
				now.UTC().Format(time.RFC3339), self.filter.Len(), self.filter)
			continue
		}

		self.report(now, "-", self.filter.Removed())
		self.report(now, "+", self.filter.Added())
	}
	return nil
}

func doWatch() error {
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

	options := []tracker.Option{}
	if *watch_reuse {
		options = append(options, tracker.WithPidReuseDetection())
	}

	filter_obj := filter.NewFilter(
		tracker.NewPopulationTracker(registry_obj, options...))
	err = watch_filter.apply(ctx, registry_obj, filter_obj)
	if err != nil {
		return err
	}

	watcher_obj := &watcher{
		filter:   filter_obj,
		clock:    utils.RealClock{},
		interval: *watch_interval,
		count:    *watch_count,
		out:      os.Stdout,
		logger:   logging.GetLogger(config_obj, &logging.ToolComponent),
	}
	return watcher_obj.Run(ctx)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case watch_command.FullCommand():
			FatalIfError(watch_command, doWatch)

		default:
			return false
		}
		return true
	})
}
