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
	"strings"

	"github.com/Velocidex/yaml/v2"
	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/utils"
)

const (
	PROTOCOL_LOCAL  = "local"
	PROTOCOL_JSON   = "json"
	PROTOCOL_HTTP   = "http"
	PROTOCOL_XMLRPC = "xmlrpc"
)

type BackendConfig struct {
	// One of local, json (alias http) or xmlrpc.
	Protocol string `json:"protocol,omitempty"`

	// Base URL of the remote server.
	Url string `json:"url,omitempty"`

	TimeoutSec int64 `json:"timeout,omitempty"`

	// Retries performed by the HTTP transport. The core never retries.
	Retries int `json:"retries,omitempty"`

	// Maximum remote calls per second, 0 means unlimited.
	MaxQps float64 `json:"max_qps,omitempty"`
}

type LocalConfig struct {
	ProcRoot string         `json:"proc_root,omitempty"`
	Projects map[int]string `json:"projects,omitempty"`
	Zones    map[int]string `json:"zones,omitempty"`
}

type ServerConfig struct {
	Listen string `json:"listen,omitempty"`
}

type LoggingConfig struct {
	Level    string `json:"level,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Config struct {
	Backend *BackendConfig `json:"Backend,omitempty"`
	Local   *LocalConfig   `json:"Local,omitempty"`
	Server  *ServerConfig  `json:"Server,omitempty"`
	Logging *LoggingConfig `json:"Logging,omitempty"`

	Verbose bool `json:"-"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Backend: &BackendConfig{
			Protocol:   constants.DEFAULT_PROTOCOL,
			TimeoutSec: constants.DEFAULT_TIMEOUT_SEC,
			Retries:    constants.DEFAULT_RETRIES,
		},
		Local: &LocalConfig{
			ProcRoot: constants.DEFAULT_PROC_ROOT,
			Projects: map[int]string{
				0: "system",
				1: "user.root",
				2: "noproject",
				3: "default",
			},
			Zones: map[int]string{0: "global"},
		},
		Server:  &ServerConfig{Listen: constants.DEFAULT_LISTEN},
		Logging: &LoggingConfig{Level: "info"},
	}
}

// Fill in any sections the user left out so callers never see nil
// sections.
func (self *Config) applyDefaults() {
	defaults := GetDefaultConfig()
	if self.Backend == nil {
		self.Backend = defaults.Backend
	}
	if self.Backend.Protocol == "" {
		self.Backend.Protocol = defaults.Backend.Protocol
	}
	if self.Backend.TimeoutSec == 0 {
		self.Backend.TimeoutSec = defaults.Backend.TimeoutSec
	}

	if self.Local == nil {
		self.Local = defaults.Local
	}
	if self.Local.ProcRoot == "" {
		self.Local.ProcRoot = defaults.Local.ProcRoot
	}
	if self.Local.Projects == nil {
		self.Local.Projects = defaults.Local.Projects
	}
	if self.Local.Zones == nil {
		self.Local.Zones = defaults.Local.Zones
	}

	if self.Server == nil {
		self.Server = defaults.Server
	}
	if self.Server.Listen == "" {
		self.Server.Listen = defaults.Server.Listen
	}

	if self.Logging == nil {
		self.Logging = defaults.Logging
	}
}

func (self *Config) Validate() error {
	self.applyDefaults()

	protocol := strings.ToLower(self.Backend.Protocol)
	switch protocol {
	case PROTOCOL_LOCAL:
	case PROTOCOL_JSON, PROTOCOL_HTTP, PROTOCOL_XMLRPC:
		if self.Backend.Url == "" {
			return utils.NewConfigurationError("Backend.url", "",
				"a url is required for remote protocol "+protocol)
		}
	default:
		return utils.NewConfigurationError("Backend.protocol",
			self.Backend.Protocol, "unsupported protocol")
	}
	self.Backend.Protocol = protocol

	if self.Backend.Retries < 0 {
		return utils.NewConfigurationError("Backend.retries", "",
			"must not be negative")
	}

	if self.Backend.MaxQps < 0 {
		return utils.NewConfigurationError("Backend.max_qps", "",
			"must not be negative")
	}

	return nil
}

func Encode(config_obj *Config) ([]byte, error) {
	return yaml.Marshal(config_obj)
}
