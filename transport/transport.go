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

package transport

import (
	"context"

	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/utils"
)

// Transport performs one remote call. Arguments are the decimal or
// textual parameters of the logical method and the result is the raw
// JSON text the server sent. All failures are *utils.TransportError.
type Transport interface {
	Call(ctx context.Context, method string, args ...string) (string, error)
	Close() error
}

func NewTransport(config_obj *config.Config, protocol string) (Transport, error) {
	switch protocol {
	case config.PROTOCOL_JSON, config.PROTOCOL_HTTP:
		return NewHTTPTransport(config_obj)

	case config.PROTOCOL_XMLRPC:
		return NewXMLRPCTransport(config_obj)

	default:
		return nil, utils.NewConfigurationError("Backend.protocol",
			protocol, "no remote transport for protocol")
	}
}
