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
	"io/ioutil"
	"os"

	"github.com/Velocidex/yaml/v2"
	"github.com/pkg/errors"
)

// A hard error causes the loader to stop immediately.
type HardError struct {
	Err error
}

func (self HardError) Error() string {
	return self.Err.Error()
}

func (self HardError) Unwrap() error {
	return self.Err
}

type loaderFunction struct {
	name        string
	loader_func func() (*Config, error)
}

type configMutator struct {
	name                string
	config_mutator_func func(config_obj *Config) error
}

// Loader tries each loader in turn, applies mutators (usually command
// line overrides) and validates the result.
type Loader struct {
	verbose bool

	loaders         []loaderFunction
	config_mutators []configMutator
}

func NewLoader() *Loader {
	return &Loader{}
}

func (self *Loader) Copy() *Loader {
	return &Loader{
		verbose:         self.verbose,
		loaders:         append([]loaderFunction{}, self.loaders...),
		config_mutators: append([]configMutator{}, self.config_mutators...),
	}
}

func (self *Loader) WithVerbose(verbose bool) *Loader {
	self = self.Copy()
	self.verbose = verbose
	return self
}

func (self *Loader) WithFileLoader(filename string) *Loader {
	if filename == "" {
		return self
	}

	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithFileLoader",
		loader_func: func() (*Config, error) {
			result, err := read_config_from_file(filename)
			if err != nil {
				// A named file that is missing or broken stops the
				// search.
				return nil, HardError{err}
			}
			return result, nil
		}})
	return self
}

func (self *Loader) WithEnvLoader(env_var string) *Loader {
	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithEnvLoader",
		loader_func: func() (*Config, error) {
			filename := os.Getenv(env_var)
			if filename == "" {
				return nil, errors.Errorf("Env var %v is not set", env_var)
			}
			result, err := read_config_from_file(filename)
			if err != nil {
				return nil, HardError{err}
			}
			return result, nil
		}})
	return self
}

func (self *Loader) WithLiteralLoader(serialized []byte) *Loader {
	if len(serialized) == 0 {
		return self
	}

	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithLiteralLoader",
		loader_func: func() (*Config, error) {
			result, err := ParseConfigFromString(serialized)
			if err != nil {
				return nil, HardError{err}
			}
			return result, nil
		}})
	return self
}

func (self *Loader) WithDefaultLoader() *Loader {
	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithDefaultLoader",
		loader_func: func() (*Config, error) {
			return GetDefaultConfig(), nil
		}})
	return self
}

func (self *Loader) WithConfigMutator(
	name string, mutator func(config_obj *Config) error) *Loader {
	self = self.Copy()
	self.config_mutators = append(self.config_mutators, configMutator{
		name:                name,
		config_mutator_func: mutator,
	})
	return self
}

func (self *Loader) LoadAndValidate() (*Config, error) {
	for _, loader := range self.loaders {
		result, err := loader.loader_func()
		if err == nil {
			return result, self.validate(result)
		}

		_, ok := err.(HardError)
		if ok {
			return nil, errors.Wrap(err, loader.name)
		}
	}
	return nil, errors.New("Unable to load config from any source.")
}

func (self *Loader) validate(config_obj *Config) error {
	config_obj.Verbose = self.verbose
	config_obj.applyDefaults()

	for _, mutator := range self.config_mutators {
		err := mutator.config_mutator_func(config_obj)
		if err != nil {
			return errors.Wrap(err, mutator.name)
		}
	}

	return config_obj.Validate()
}

// LoadConfig reads and validates a config file.
func LoadConfig(filename string) (*Config, error) {
	return NewLoader().WithFileLoader(filename).LoadAndValidate()
}

func ParseConfigFromString(serialized []byte) (*Config, error) {
	result := &Config{}
	err := yaml.UnmarshalStrict(serialized, result)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

func read_config_from_file(filename string) (*Config, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return ParseConfigFromString(data)
}
