package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/procwatch/utils"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

var remoteConfig = `
Backend:
  protocol: XMLRPC
  url: http://sol10.example.com:8080/RPC2
  timeout: 3
Local:
  zones:
    0: global
    7: web
Logging:
  level: debug
`

func TestParseRemoteConfig(t *testing.T) {
	config_obj, err := NewLoader().
		WithLiteralLoader([]byte(remoteConfig)).
		LoadAndValidate()
	require.NoError(t, err)

	assert.Equal(t, PROTOCOL_XMLRPC, config_obj.Backend.Protocol)
	assert.Equal(t, int64(3), config_obj.Backend.TimeoutSec)
	assert.Equal(t, "web", config_obj.Local.Zones[7])

	// Missing sections are defaulted.
	assert.Equal(t, "/proc", config_obj.Local.ProcRoot)
	assert.Equal(t, "system", config_obj.Local.Projects[0])
	assert.NotNil(t, config_obj.Server)
	assert.Equal(t, "debug", config_obj.Logging.Level)
}

func TestUnsupportedProtocol(t *testing.T) {
	_, err := NewLoader().
		WithLiteralLoader([]byte("Backend:\n  protocol: corba\n")).
		LoadAndValidate()
	require.Error(t, err)
	assert.True(t, utils.IsConfigurationError(err))
}

func TestRemoteRequiresUrl(t *testing.T) {
	config_obj := GetDefaultConfig()
	config_obj.Backend.Protocol = "json"
	assert.True(t, utils.IsConfigurationError(config_obj.Validate()))

	config_obj.Backend.Url = "http://localhost:8001/"
	assert.NoError(t, config_obj.Validate())
}

func TestUnknownFieldsAreRejected(t *testing.T) {
	_, err := ParseConfigFromString([]byte("Backend:\n  protocl: json\n"))
	assert.Error(t, err)
}

func TestMutatorsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "procwatch.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte(remoteConfig), 0600))

	config_obj, err := NewLoader().
		WithFileLoader(filename).
		WithDefaultLoader().
		WithConfigMutator("protocol flag", func(config_obj *Config) error {
			config_obj.Backend.Protocol = "local"
			return nil
		}).
		LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, PROTOCOL_LOCAL, config_obj.Backend.Protocol)
}

func TestMissingFileIsHardError(t *testing.T) {
	_, err := NewLoader().
		WithFileLoader("/does/not/exist.yaml").
		WithDefaultLoader().
		LoadAndValidate()
	assert.Error(t, err)
}

func TestDefaultLoader(t *testing.T) {
	config_obj, err := NewLoader().WithDefaultLoader().LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, PROTOCOL_LOCAL, config_obj.Backend.Protocol)
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.Equal(t, "procwatch", version.Name)
	assert.NotEqual(t, "", version.Version)
}

func TestEnvLoader(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "procwatch.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte(remoteConfig), 0600))

	loader := NewLoader().
		WithEnvLoader("PROCWATCH_TEST_CONFIG").
		WithDefaultLoader()

	// Unset variable falls through to the defaults.
	t.Setenv("PROCWATCH_TEST_CONFIG", "")
	config_obj, err := loader.LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, PROTOCOL_LOCAL, config_obj.Backend.Protocol)

	t.Setenv("PROCWATCH_TEST_CONFIG", filename)
	config_obj, err = loader.LoadAndValidate()
	require.NoError(t, err)
	assert.Equal(t, PROTOCOL_XMLRPC, config_obj.Backend.Protocol)
}

func TestDocumentedKeys(t *testing.T) {
	config_obj, err := ParseConfigFromString([]byte(`
Backend:
  protocol: json
  url: http://localhost:8001/
  timeout: 7
  retries: 2
  max_qps: 5.5
Local:
  proc_root: /host/proc
  projects:
    10: batch
Server:
  listen: 127.0.0.1:9000
Logging:
  level: warn
  filename: /var/log/procwatch.log
`))
	require.NoError(t, err)
	require.NoError(t, config_obj.Validate())

	assert.Equal(t, int64(7), config_obj.Backend.TimeoutSec)
	assert.Equal(t, 2, config_obj.Backend.Retries)
	assert.Equal(t, 5.5, config_obj.Backend.MaxQps)
	assert.Equal(t, "/host/proc", config_obj.Local.ProcRoot)
	assert.Equal(t, "batch", config_obj.Local.Projects[10])
	assert.Equal(t, "127.0.0.1:9000", config_obj.Server.Listen)
	assert.Equal(t, "/var/log/procwatch.log", config_obj.Logging.Filename)
}

func TestEncodeUsesDocumentedKeys(t *testing.T) {
	config_obj := GetDefaultConfig()
	config_obj.Verbose = true

	serialized, err := Encode(config_obj)
	require.NoError(t, err)

	text := string(serialized)
	assert.Contains(t, text, "Backend:")
	assert.Contains(t, text, "timeout: 10")
	assert.Contains(t, text, "proc_root: /proc")
	assert.NotContains(t, text, "timeoutsec")
	assert.NotContains(t, text, "verbose")

	// The encoded form loads back.
	parsed, err := ParseConfigFromString(serialized)
	require.NoError(t, err)
	assert.Equal(t, config_obj.Local.ProcRoot, parsed.Local.ProcRoot)
	assert.Equal(t, config_obj.Backend.TimeoutSec, parsed.Backend.TimeoutSec)
}
