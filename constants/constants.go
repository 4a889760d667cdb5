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

package constants

var (
	VERSION    = "0.3.0"
	USER_AGENT = "procwatch/" + VERSION

	// Remote servers publish their methods under this prefix for
	// XML-RPC.
	XMLRPC_SERVICE_PREFIX = "Service."

	DEFAULT_PROTOCOL     = "local"
	DEFAULT_PROC_ROOT    = "/proc"
	DEFAULT_TIMEOUT_SEC  = int64(10)
	DEFAULT_RETRIES      = 2
	DEFAULT_LISTEN       = "127.0.0.1:8001"
	DEFAULT_POLL_SECONDS = 5
)

const (
	METHOD_GET_PROCESSES    = "getProcesses"
	METHOD_GET_LWPS         = "getLwps"
	METHOD_GET_INFO         = "getInfo"
	METHOD_GET_LWP_INFO     = "getLwpInfo"
	METHOD_GET_STATUS       = "getStatus"
	METHOD_GET_LWP_STATUS   = "getLwpStatus"
	METHOD_GET_USAGE        = "getUsage"
	METHOD_GET_LWP_USAGE    = "getLwpUsage"
	METHOD_GET_USER_NAME    = "getUserName"
	METHOD_GET_USER_ID      = "getUserId"
	METHOD_GET_GROUP_NAME   = "getGroupName"
	METHOD_GET_GROUP_ID     = "getGroupId"
	METHOD_GET_PROJECT_NAME = "getProjectName"
	METHOD_GET_PROJECT_ID   = "getProjectId"
	METHOD_GET_ZONE_NAME    = "getZoneName"
	METHOD_GET_ZONE_ID      = "getZoneId"
)
