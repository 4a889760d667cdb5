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
	"sync"

	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/registry"
	"www.velocidex.com/golang/procwatch/server"
)

var (
	serve_command = app.Command("serve",
		"Publish the configured backend as a json server.")
	serve_listen = serve_command.Flag("listen",
		"Address to listen on. Overrides the config.").String()
)

func doServe() error {
	config_obj, err := makeDefaultConfigLoader().
		WithConfigMutator("Flag --listen",
			func(config_obj *config.Config) error {
				if *serve_listen != "" {
					config_obj.Server.Listen = *serve_listen
				}
				return nil
			}).LoadAndValidate()
	if err != nil {
		return err
	}

	err = logging.InitLogging(config_obj)
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

	wg := &sync.WaitGroup{}
	_, err = server.StartServer(ctx, wg, config_obj, registry_obj.Source())
	if err != nil {
		return err
	}

	logger := logging.GetLogger(config_obj, &logging.ToolComponent)
	logger.Info("Serving the %v backend", registry_obj.Protocol())

	<-ctx.Done()
	wg.Wait()
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case serve_command.FullCommand():
			FatalIfError(serve_command, doServe)

		default:
			return false
		}
		return true
	})
}
