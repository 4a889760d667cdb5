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
	"os"
	"os/signal"
	"strconv"
	"syscall"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/logging"
)

// Command line flags win over the config file.
func makeDefaultConfigLoader() *config.Loader {
	return config.NewLoader().
		WithVerbose(*verbose_flag).
		WithFileLoader(*config_path).
		WithEnvLoader("PROCWATCH_CONFIG").
		WithDefaultLoader().
		WithConfigMutator("Flag --protocol",
			func(config_obj *config.Config) error {
				if *protocol_flag != "" {
					config_obj.Backend.Protocol = *protocol_flag
				}
				return nil
			}).
		WithConfigMutator("Flag --url",
			func(config_obj *config.Config) error {
				if *url_flag != "" {
					config_obj.Backend.Url = *url_flag
				}
				return nil
			}).
		WithConfigMutator("Flag --logfile",
			func(config_obj *config.Config) error {
				if *logfile_flag != "" {
					config_obj.Logging.Filename = *logfile_flag
				}
				return nil
			})
}

func loadConfig() (*config.Config, error) {
	config_obj, err := makeDefaultConfigLoader().LoadAndValidate()
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	err = logging.InitLogging(config_obj)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return config_obj, nil
}

func install_sig_handler() (context.Context, context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		select {
		case <-quit:
			cancel()

		case <-ctx.Done():
			return
		}
	}()

	return ctx, cancel
}

func FatalIfError(command *kingpin.CmdClause, cb func() error) {
	err := cb()
	kingpin.FatalIfError(err, "%s", command.FullCommand())
}

// Ids may be given as numbers or as names which are looked up on
// the backend.
func resolveId(ctx context.Context, kind, value string,
	lookup func(ctx context.Context, name string) (int, error)) (int, error) {
	id, err := strconv.Atoi(value)
	if err == nil {
		return id, nil
	}

	id, err = lookup(ctx, value)
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("unknown %v %q", kind, value)
	}
	return id, nil
}

func parseInt(kind, value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %v %q", kind, value)
	}
	return id, nil
}
