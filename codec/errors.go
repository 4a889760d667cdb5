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
)

// DecodeError means the payload was not valid for the record kind.
// Remote data sources report it as not-found but it is kept distinct
// here so callers can tell a malformed server from a missing pid.
type DecodeError struct {
	Kind string
	Err  error
}

func (self *DecodeError) Error() string {
	return fmt.Sprintf("decoding %v: %v", self.Kind, self.Err)
}

func (self *DecodeError) Unwrap() error {
	return self.Err
}

func newDecodeError(kind string, err error) error {
	return &DecodeError{Kind: kind, Err: err}
}

func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}
