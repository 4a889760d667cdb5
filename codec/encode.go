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

package codec

import (
	"www.velocidex.com/golang/procwatch/json"
	"www.velocidex.com/golang/procwatch/types"
)

// Record kinds as reported in DecodeError and metrics.
const (
	KIND_PROCESS_INFO  = "ProcessInfo"
	KIND_THREAD_REF    = "ThreadRef"
	KIND_THREAD_INFO   = "ThreadInfo"
	KIND_STATUS        = "Status"
	KIND_THREAD_STATUS = "ThreadStatus"
	KIND_USAGE         = "Usage"
)

// Encode serializes a record into a flat JSON object. Lists encode as
// arrays, with a nil list encoding as an empty array.
func Encode(record interface{}) (string, error) {
	switch t := record.(type) {
	case []*types.ProcessInfo:
		if t == nil {
			return "[]", nil
		}
	case []*types.ThreadRef:
		if t == nil {
			return "[]", nil
		}
	}
	return json.MarshalString(record)
}

func MustEncode(record interface{}) string {
	result, err := Encode(record)
	if err != nil {
		panic(err)
	}
	return result
}
