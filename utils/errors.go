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

package utils

import (
	"errors"
	"fmt"
)

// TransportError is the one failure kind that escapes a data
// source: talking to a remote server or the native facility failed.
type TransportError struct {
	Op  string
	Err error
}

func (self *TransportError) Error() string {
	return fmt.Sprintf("%v: transport failure: %v", self.Op, self.Err)
}

func (self *TransportError) Unwrap() error {
	return self.Err
}

func NewTransportError(op string, err error) error {
	// Do not double wrap.
	var existing *TransportError
	if errors.As(err, &existing) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// ConfigurationError is raised at construction time when the backend
// selection is invalid.
type ConfigurationError struct {
	Field string
	Value string
	Msg   string
}

func (self *ConfigurationError) Error() string {
	if self.Value == "" {
		return fmt.Sprintf("configuration error: %v: %v", self.Field, self.Msg)
	}
	return fmt.Sprintf("configuration error: %v %q: %v",
		self.Field, self.Value, self.Msg)
}

func NewConfigurationError(field, value, msg string) error {
	return &ConfigurationError{Field: field, Value: value, Msg: msg}
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// InitError reports that a backend could not complete its explicit
// initialization step.
type InitError struct {
	Backend string
	Err     error
}

func (self *InitError) Error() string {
	return fmt.Sprintf("%v backend not initialized: %v", self.Backend, self.Err)
}

func (self *InitError) Unwrap() error {
	return self.Err
}

func IsInitError(err error) bool {
	var target *InitError
	return errors.As(err, &target)
}
