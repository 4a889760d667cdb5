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

package vtesting

import (
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"www.velocidex.com/golang/procwatch/logging"
)

// MemoryLogs keeps the messages of every component logger.
type MemoryLogs struct {
	mu    sync.Mutex
	lines []string
}

func (self *MemoryLogs) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (self *MemoryLogs) Fire(entry *logrus.Entry) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.lines = append(self.lines, entry.Message)
	return nil
}

func (self *MemoryLogs) Lines() []string {
	self.mu.Lock()
	defer self.mu.Unlock()

	return append([]string{}, self.lines...)
}

func (self *MemoryLogs) ContainsRegex(regex string) bool {
	re := regexp.MustCompile(regex)

	for _, line := range self.Lines() {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func (self *MemoryLogs) Contains(t assert.TestingT,
	regex string, msgAndArgs ...interface{}) {
	if !self.ContainsRegex(regex) {
		t.Errorf("Unable to find '%v' in memory logs %v", regex, msgAndArgs)
	}
}

// CaptureLogs turns on debug logging and records all log messages
// from now on.
func CaptureLogs() *MemoryLogs {
	result := &MemoryLogs{}
	logging.Manager.AddHook(result)
	logging.Manager.SetLevel(logrus.DebugLevel)
	return result
}
