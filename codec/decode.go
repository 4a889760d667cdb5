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
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fastjson"
	"www.velocidex.com/golang/procwatch/json"
	"www.velocidex.com/golang/procwatch/types"
)

/*
  Servers are not consistent in how they wrap a single record: some
  send a bare object and others a one element array containing the
  object. We accept both for every record kind.

  Decoding results are:

  - A record and nil error.
  - nil and nil error: the server reported nothing (empty text, null,
    [] or [null]). This is a normal not-found.
  - nil and a DecodeError: the payload is malformed.
*/

// Returns the object value for a single record or nil for an empty
// payload.
func unwrapRecord(kind, data string) (*fastjson.Value, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, nil
	}

	var parser fastjson.Parser
	value, err := parser.Parse(trimmed)
	if err != nil {
		return nil, newDecodeError(kind, err)
	}

	return unwrapValue(kind, value)
}

func unwrapValue(kind string, value *fastjson.Value) (*fastjson.Value, error) {
	switch value.Type() {
	case fastjson.TypeNull:
		return nil, nil

	case fastjson.TypeObject:
		return value, nil

	case fastjson.TypeArray:
		items, _ := value.Array()
		switch len(items) {
		case 0:
			return nil, nil
		case 1:
			switch items[0].Type() {
			case fastjson.TypeNull:
				return nil, nil
			case fastjson.TypeObject:
				return items[0], nil
			}
			return nil, newDecodeError(kind, fmt.Errorf(
				"array element is %v, expected object", items[0].Type()))
		}
		return nil, newDecodeError(kind, fmt.Errorf(
			"expected a single record, got %d", len(items)))
	}

	return nil, newDecodeError(kind, fmt.Errorf(
		"unexpected %v, expected object", value.Type()))
}

// Binds an object value onto target using the struct tags.
func bind(kind string, value *fastjson.Value, target interface{}) error {
	err := json.Unmarshal(value.MarshalTo(nil), target)
	if err != nil {
		return newDecodeError(kind, err)
	}
	return nil
}

func decodeRecord(kind, data string, target interface{}) (bool, error) {
	value, err := unwrapRecord(kind, data)
	if err != nil || value == nil {
		return false, err
	}

	err = bind(kind, value, target)
	if err != nil {
		return false, err
	}
	return true, nil
}

func DecodeProcessInfo(data string) (*types.ProcessInfo, error) {
	result := &types.ProcessInfo{}
	pres, err := decodeRecord(KIND_PROCESS_INFO, data, result)
	if !pres {
		return nil, err
	}
	return result, nil
}

func DecodeThreadRef(data string) (*types.ThreadRef, error) {
	result := &types.ThreadRef{}
	pres, err := decodeRecord(KIND_THREAD_REF, data, result)
	if !pres {
		return nil, err
	}
	return result, nil
}

func DecodeThreadInfo(data string) (*types.ThreadInfo, error) {
	result := &types.ThreadInfo{}
	pres, err := decodeRecord(KIND_THREAD_INFO, data, result)
	if !pres {
		return nil, err
	}
	return result, nil
}

func DecodeThreadStatus(data string) (*types.ThreadStatus, error) {
	result := &types.ThreadStatus{}
	pres, err := decodeRecord(KIND_THREAD_STATUS, data, result)
	if !pres {
		return nil, err
	}
	return result, nil
}

// Status carries the pid under "lwpid". Some servers emit "pid"
// instead so fall back to it when "lwpid" is missing.
func DecodeStatus(data string) (*types.Status, error) {
	value, err := unwrapRecord(KIND_STATUS, data)
	if err != nil || value == nil {
		return nil, err
	}

	result := &types.Status{}
	err = bind(KIND_STATUS, value, result)
	if err != nil {
		return nil, err
	}

	if !value.Exists("lwpid") && value.Exists("pid") {
		pid, err := value.Get("pid").Int()
		if err != nil {
			return nil, newDecodeError(KIND_STATUS, err)
		}
		result.Pid = pid
	}
	return result, nil
}

func DecodeUsage(data string) (*types.Usage, error) {
	result := &types.Usage{}
	pres, err := decodeRecord(KIND_USAGE, data, result)
	if !pres {
		return nil, err
	}
	return result, nil
}

// Parses a list payload. The bool is false when the server sent null
// or nothing at all.
func parseList(kind, data string) ([]*fastjson.Value, bool, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, false, nil
	}

	var parser fastjson.Parser
	value, err := parser.Parse(trimmed)
	if err != nil {
		return nil, false, newDecodeError(kind, err)
	}

	switch value.Type() {
	case fastjson.TypeNull:
		return nil, false, nil
	case fastjson.TypeArray:
		items, _ := value.Array()
		return items, true, nil
	}

	return nil, false, newDecodeError(kind, fmt.Errorf(
		"unexpected %v, expected array", value.Type()))
}

var errNullElement = errors.New("null list element")

// Each element is decoded on its own. Elements may themselves use
// either record shape.
func decodeElement(kind string, item *fastjson.Value, target interface{}) error {
	value, err := unwrapValue(kind, item)
	if err != nil {
		return err
	}
	if value == nil {
		return newDecodeError(kind, errNullElement)
	}
	return bind(kind, value, target)
}

// DecodeProcessList returns the decoded processes and the number of
// malformed elements that were dropped.
func DecodeProcessList(data string) ([]*types.ProcessInfo, int, error) {
	items, _, err := parseList(KIND_PROCESS_INFO, data)
	if err != nil {
		return nil, 0, err
	}

	dropped := 0
	result := make([]*types.ProcessInfo, 0, len(items))
	for _, item := range items {
		info := &types.ProcessInfo{}
		err := decodeElement(KIND_PROCESS_INFO, item, info)
		if err != nil {
			dropped++
			continue
		}
		result = append(result, info)
	}
	return result, dropped, nil
}

// DecodeThreadList distinguishes an absent process (null, bool is
// false) from a process with no threads (an empty array).
func DecodeThreadList(data string) ([]*types.ThreadRef, bool, int, error) {
	items, pres, err := parseList(KIND_THREAD_REF, data)
	if err != nil || !pres {
		return nil, false, 0, err
	}

	dropped := 0
	result := make([]*types.ThreadRef, 0, len(items))
	for _, item := range items {
		ref := &types.ThreadRef{}
		err := decodeElement(KIND_THREAD_REF, item, ref)
		if err != nil {
			dropped++
			continue
		}
		result = append(result, ref)
	}
	return result, true, dropped, nil
}
