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
	"io"
	"os"
	"runtime/debug"

	"github.com/Velocidex/yaml/v2"
	"www.velocidex.com/golang/procwatch/config"
)

var (
	version_command = app.Command("version",
		"Report the build and the backend this binary would use.")
)

type versionReport struct {
	Build     *config.Version `json:"build"`
	Module    string          `json:"module,omitempty"`
	Protocols []string        `json:"protocols"`
	Config    string          `json:"config"`
	Backend   string          `json:"backend,omitempty"`
	Url       string          `json:"url,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Where the loader will find its configuration, in search order.
func configSource() string {
	if *config_path != "" {
		return *config_path
	}

	env_path := os.Getenv("PROCWATCH_CONFIG")
	if env_path != "" {
		return "$PROCWATCH_CONFIG=" + env_path
	}
	return "built-in defaults"
}

func buildVersionReport(loader *config.Loader) *versionReport {
	result := &versionReport{
		Build: config.GetVersion(),
		Protocols: []string{
			config.PROTOCOL_LOCAL, config.PROTOCOL_JSON,
			config.PROTOCOL_HTTP, config.PROTOCOL_XMLRPC,
		},
		Config: configSource(),
	}

	info, ok := debug.ReadBuildInfo()
	if ok {
		result.Module = info.Main.Path
	}

	// A broken config is reported rather than fatal so version always
	// prints.
	config_obj, err := loader.LoadAndValidate()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Backend = config_obj.Backend.Protocol
	result.Url = config_obj.Backend.Url
	return result
}

func writeVersion(out io.Writer, report *versionReport) error {
	serialized, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	_, err = out.Write(serialized)
	return err
}

func doVersion() error {
	err := writeVersion(os.Stdout, buildVersionReport(makeDefaultConfigLoader()))
	if err != nil {
		return err
	}

	if *verbose_flag {
		info, ok := debug.ReadBuildInfo()
		if ok {
			fmt.Printf("\nBuild Info:\n%v\n", info)
		}
	}
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case version_command.FullCommand():
			FatalIfError(version_command, doVersion)
		default:
			return false
		}
		return true
	})
}
