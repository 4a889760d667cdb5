package logging

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

func TestComponentLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	manager := NewLogManager()
	manager.SetOutput(buf)

	logger := manager.GetLogger(&ServerComponent)
	assert.Equal(t, logger, manager.GetLogger(&ServerComponent))

	logger.Info("serving %v on %v", "getInfo", "127.0.0.1")
	assert.Contains(t, buf.String(), "serving getInfo on 127.0.0.1")
	assert.Contains(t, buf.String(), "component=\"procwatch server\"")

	// Debug is filtered at the default level until raised.
	logger.Debug("hidden")
	assert.False(t, bytes.Contains(buf.Bytes(), []byte("hidden")))

	manager.SetLevel(logrus.DebugLevel)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestInitLoggingWithFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "procwatch.log")

	config_obj := config.GetDefaultConfig()
	config_obj.Logging.Filename = filename
	assert.NoError(t, InitLogging(config_obj))

	Manager.SetOutput(ioutil.Discard)
	GetLogger(config_obj, &ToolComponent).Info("written to file")

	data, err := ioutil.ReadFile(filename)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestInitLoggingRejectsBadLevel(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Logging.Level = "chatty"
	assert.Error(t, InitLogging(config_obj))
}
