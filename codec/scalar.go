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
	"fmt"
	"strings"

	"github.com/valyala/fastjson"
)

const (
	KIND_NAME = "Name"
	KIND_ID   = "Id"
)

// Name and id lookups answer with a bare JSON scalar. As with records
// a one element array is accepted too.
func unwrapScalar(kind, data string) (*fastjson.Value, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, nil
	}

	var parser fastjson.Parser
	value, err := parser.Parse(trimmed)
	if err != nil {
		return nil, newDecodeError(kind, err)
	}

	if value.Type() == fastjson.TypeArray {
		items, _ := value.Array()
		switch len(items) {
		case 0:
			return nil, nil
		case 1:
			value = items[0]
		default:
			return nil, newDecodeError(kind, fmt.Errorf(
				"expected a single value, got %d", len(items)))
		}
	}

	if value.Type() == fastjson.TypeNull {
		return nil, nil
	}
	return value, nil
}

// DecodeName returns the name and true, or false when the server
// has no name for the id.
func DecodeName(data string) (string, bool, error) {
	value, err := unwrapScalar(KIND_NAME, data)
	if err != nil || value == nil {
		return "", false, err
	}

	name, err := value.StringBytes()
	if err != nil {
		return "", false, newDecodeError(KIND_NAME, err)
	}
	return string(name), true, nil
}

// DecodeId returns -1 when the server has no id for the name. Servers
// signal this either with null or with -1 directly.
func DecodeId(data string) (int, error) {
	value, err := unwrapScalar(KIND_ID, data)
	if err != nil {
		return -1, err
	}
	if value == nil {
		return -1, nil
	}

	id, err := value.Int()
	if err != nil {
		return -1, newDecodeError(KIND_ID, err)
	}
	if id < 0 {
		return -1, nil
	}
	return id, nil
}

func EncodeName(name string, pres bool) string {
	if !pres {
		return "null"
	}
	return MustEncode(name)
}
