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

// Wrap the json library so every encoder in the project shares the
// same options and custom encoders.

package json

import (
	"github.com/Velocidex/json"
	"github.com/Velocidex/ordereddict"
)

// Ordered dicts keep their insertion order on the wire. The CLI
// relies on this to print columns in a stable order.
func MarshalJSONDict(v interface{}, opts *json.EncOpts) ([]byte, error) {
	self, ok := v.(*ordereddict.Dict)
	if !ok || self == nil {
		return nil, json.EncoderCallbackSkip
	}

	result := []byte{'{'}
	for idx, k := range self.Keys() {
		if idx > 0 {
			result = append(result, ',')
		}

		key, err := json.MarshalWithOptions(k, opts)
		if err != nil {
			return nil, err
		}
		result = append(result, key...)
		result = append(result, ':')

		value, _ := self.Get(k)
		serialized, err := json.MarshalWithOptions(value, opts)
		if err != nil {
			serialized = []byte("null")
		}
		result = append(result, serialized...)
	}
	result = append(result, '}')
	return result, nil
}

func init() {
	RegisterCustomEncoder(ordereddict.NewDict(), MarshalJSONDict)
}
