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

package config

import (
	"runtime"

	"www.velocidex.com/golang/procwatch/constants"
)

// Set at link time with -ldflags "-X ...".
var (
	build_time  string
	commit_hash string
)

type Version struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetVersion() *Version {
	return &Version{
		Name:      "procwatch",
		Version:   constants.VERSION,
		Commit:    commit_hash,
		BuildTime: build_time,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "-" + runtime.GOARCH,
	}
}
