package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/utils"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

const infoResponse = `<?xml version="1.0"?>
<methodResponse>
  <params>
    <param>
      <value><string>{"pid":100,"fname":"sshd"}</string></value>
    </param>
  </params>
</methodResponse>`

const faultResponse = `<?xml version="1.0"?>
<methodResponse>
  <fault>
    <value>
      <struct>
        <member><name>faultCode</name><value><int>4</int></value></member>
        <member><name>faultString</name><value><string>no such method</string></value></member>
      </struct>
    </value>
  </fault>
</methodResponse>`

type TransportTestSuite struct {
	suite.Suite

	mu       sync.Mutex
	requests []string
	bodies   []string

	server     *httptest.Server
	config_obj *config.Config
}

func (self *TransportTestSuite) SetupTest() {
	self.requests = nil
	self.bodies = nil

	self.server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)

			self.mu.Lock()
			self.requests = append(self.requests, r.Method+" "+r.URL.EscapedPath())
			self.bodies = append(self.bodies, string(body))
			self.mu.Unlock()

			switch {
			case r.URL.Path == "/getInfo/100":
				w.Write([]byte(`{"pid":100,"fname":"sshd"}`))

			case r.URL.Path == "/getLwps/404":
				w.Write([]byte(`null`))

			case r.URL.Path == "/getStatus/500":
				w.WriteHeader(http.StatusInternalServerError)

			case strings.HasPrefix(r.URL.Path, "/getUserId/"):
				w.Write([]byte(`500`))

			case r.URL.Path == "/xmlrpc" && r.Method == "POST":
				w.Header().Set("Content-Type", "text/xml")
				if strings.Contains(string(body), "Service.getInfo") {
					w.Write([]byte(infoResponse))
					return
				}
				w.Write([]byte(faultResponse))

			default:
				http.NotFound(w, r)
			}
		}))

	self.config_obj = config.GetDefaultConfig()
	self.config_obj.Backend.Protocol = config.PROTOCOL_JSON
	self.config_obj.Backend.Url = self.server.URL + "/"
	self.config_obj.Backend.Retries = 0
}

func (self *TransportTestSuite) TearDownTest() {
	self.server.Close()
}

func (self *TransportTestSuite) TestHTTPCall() {
	transport, err := NewTransport(self.config_obj, config.PROTOCOL_JSON)
	require.NoError(self.T(), err)
	defer transport.Close()

	ctx := context.Background()
	result, err := transport.Call(ctx, "getInfo", "100")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), `{"pid":100,"fname":"sshd"}`, result)

	// Not found is a normal payload at this layer.
	result, err = transport.Call(ctx, "getLwps", "404")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), "null", result)

	// Arguments are path escaped.
	result, err = transport.Call(ctx, "getUserId", "a b/c")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), "500", result)

	self.mu.Lock()
	defer self.mu.Unlock()
	assert.Equal(self.T(), []string{
		"GET /getInfo/100",
		"GET /getLwps/404",
		"GET /getUserId/a%20b%2Fc",
	}, self.requests)
}

func (self *TransportTestSuite) TestHTTPErrors() {
	transport, err := NewHTTPTransport(self.config_obj)
	require.NoError(self.T(), err)
	defer transport.Close()

	ctx := context.Background()

	// An unknown endpoint is a transport failure, not an empty result.
	_, err = transport.Call(ctx, "getZoneName", "1")
	assert.True(self.T(), utils.IsTransportError(err))
	assert.Contains(self.T(), err.Error(), "getZoneName")

	_, err = transport.Call(ctx, "getStatus", "500")
	assert.True(self.T(), utils.IsTransportError(err))

	self.server.Close()
	_, err = transport.Call(ctx, "getInfo", "100")
	assert.True(self.T(), utils.IsTransportError(err))
	assert.Contains(self.T(), err.Error(), "getInfo")
}

func (self *TransportTestSuite) TestRateLimiterHonorsContext() {
	self.config_obj.Backend.MaxQps = 1
	transport, err := NewHTTPTransport(self.config_obj)
	require.NoError(self.T(), err)
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = transport.Call(ctx, "getInfo", "100")
	assert.True(self.T(), utils.IsTransportError(err))

	self.mu.Lock()
	defer self.mu.Unlock()
	assert.Empty(self.T(), self.requests)
}

func (self *TransportTestSuite) TestXMLRPCCall() {
	self.config_obj.Backend.Protocol = config.PROTOCOL_XMLRPC
	self.config_obj.Backend.Url = self.server.URL + "/xmlrpc"

	transport, err := NewTransport(self.config_obj, config.PROTOCOL_XMLRPC)
	require.NoError(self.T(), err)
	defer transport.Close()

	ctx := context.Background()
	result, err := transport.Call(ctx, "getInfo", "100")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), `{"pid":100,"fname":"sshd"}`, result)

	self.mu.Lock()
	require.Len(self.T(), self.bodies, 1)
	assert.Contains(self.T(), self.bodies[0],
		"<methodName>Service.getInfo</methodName>")
	assert.Contains(self.T(), self.bodies[0], "<string>100</string>")
	self.mu.Unlock()

	// Faults surface as transport failures.
	_, err = transport.Call(ctx, "getZoneName", "0")
	assert.True(self.T(), utils.IsTransportError(err))
	assert.Contains(self.T(), err.Error(), "getZoneName")
}

func (self *TransportTestSuite) TestConfiguration() {
	_, err := NewTransport(self.config_obj, config.PROTOCOL_LOCAL)
	assert.True(self.T(), utils.IsConfigurationError(err))

	self.config_obj.Backend.Url = "not a url"
	_, err = NewTransport(self.config_obj, config.PROTOCOL_JSON)
	assert.True(self.T(), utils.IsConfigurationError(err))
}

func TestTransport(t *testing.T) {
	suite.Run(t, &TransportTestSuite{})
}
