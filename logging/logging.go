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

package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	rotatelogs "github.com/Velocidex/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"www.velocidex.com/golang/procwatch/config"
)

var (
	GenericComponent = "procwatch"
	ToolComponent    = "procwatch tool"
	ClientComponent  = "procwatch remote"
	ServerComponent  = "procwatch server"

	Manager = NewLogManager()
)

// LogContext adds printf style helpers on top of a logrus logger.
// Structured fields are still available through WithFields().
type LogContext struct {
	*logrus.Logger
}

func (self *LogContext) Debug(format string, args ...interface{}) {
	self.Logger.Debug(fmt.Sprintf(format, args...))
}

func (self *LogContext) Info(format string, args ...interface{}) {
	self.Logger.Info(fmt.Sprintf(format, args...))
}

func (self *LogContext) Warn(format string, args ...interface{}) {
	self.Logger.Warn(fmt.Sprintf(format, args...))
}

func (self *LogContext) Error(format string, args ...interface{}) {
	self.Logger.Error(fmt.Sprintf(format, args...))
}

// Tags every entry with the component that logged it.
type componentHook struct {
	component string
}

func (self componentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (self componentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = self.component
	return nil
}

type LogManager struct {
	mu sync.Mutex

	contexts map[*string]*LogContext
	level    logrus.Level
	out      io.Writer
	hooks    []logrus.Hook
}

func NewLogManager() *LogManager {
	return &LogManager{
		contexts: make(map[*string]*LogContext),
		level:    logrus.InfoLevel,
		out:      os.Stderr,
	}
}

func (self *LogManager) GetLogger(component *string) *LogContext {
	self.mu.Lock()
	defer self.mu.Unlock()

	ctx, pres := self.contexts[component]
	if pres {
		return ctx
	}

	logger := logrus.New()
	logger.SetOutput(self.out)
	logger.SetLevel(self.level)
	logger.AddHook(componentHook{component: *component})
	for _, hook := range self.hooks {
		logger.AddHook(hook)
	}

	ctx = &LogContext{Logger: logger}
	self.contexts[component] = ctx
	return ctx
}

func (self *LogManager) SetLevel(level logrus.Level) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.level = level
	for _, ctx := range self.contexts {
		ctx.SetLevel(level)
	}
}

func (self *LogManager) SetOutput(out io.Writer) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.out = out
	for _, ctx := range self.contexts {
		ctx.SetOutput(out)
	}
}

func (self *LogManager) AddHook(hook logrus.Hook) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.hooks = append(self.hooks, hook)
	for _, ctx := range self.contexts {
		ctx.AddHook(hook)
	}
}

// GetLogger returns the shared logger for a component. The config may
// be nil in which case the current manager settings apply.
func GetLogger(config_obj *config.Config, component *string) *LogContext {
	return Manager.GetLogger(component)
}

// InitLogging applies the logging section of the config to all
// loggers.
func InitLogging(config_obj *config.Config) error {
	level := logrus.InfoLevel
	if config_obj.Logging != nil && config_obj.Logging.Level != "" {
		parsed, err := logrus.ParseLevel(config_obj.Logging.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	if config_obj.Verbose {
		level = logrus.DebugLevel
	}
	Manager.SetLevel(level)

	if config_obj.Logging != nil && config_obj.Logging.Filename != "" {
		return AddLogFile(config_obj.Logging.Filename)
	}
	return nil
}

// AddLogFile copies every log line as JSON into filename. The file
// rotates daily and filename always links to the current one.
func AddLogFile(filename string) error {
	writer, err := rotatelogs.New(filename+".%Y%m%d",
		rotatelogs.WithLinkName(filename),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour))
	if err != nil {
		return err
	}

	// Open the first file now so a bad path fails at startup.
	err = writer.Rotate()
	if err != nil {
		return err
	}

	writers := lfshook.WriterMap{}
	for _, level := range logrus.AllLevels {
		writers[level] = writer
	}
	Manager.AddHook(lfshook.NewHook(writers, &logrus.JSONFormatter{}))
	return nil
}
