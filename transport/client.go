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

package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/utils"
)

// Forwards retryablehttp's key/value logging into logrus fields.
type leveledLogger struct {
	logger *logging.LogContext
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		result[fmt.Sprintf("%v", keysAndValues[i])] = keysAndValues[i+1]
	}
	return result
}

func (self leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	self.logger.WithFields(fields(keysAndValues)).Error(msg)
}

func (self leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	self.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (self leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	self.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (self leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	self.logger.WithFields(fields(keysAndValues)).Warn(msg)
}

// Builds the retrying client shared by both remote protocols. The
// underlying transport negotiates HTTP/2 when the server offers it.
func newRetryableClient(config_obj *config.Config) (*retryablehttp.Client, error) {
	timeout := time.Duration(config_obj.Backend.TimeoutSec) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	err := http2.ConfigureTransport(transport)
	if err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	client.RetryMax = config_obj.Backend.Retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = leveledLogger{
		logger: logging.GetLogger(config_obj, &logging.ClientComponent),
	}
	return client, nil
}

// A nil limiter lets every call through.
func newLimiter(config_obj *config.Config) *rate.Limiter {
	if config_obj.Backend.MaxQps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(config_obj.Backend.MaxQps), 1)
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter, method string) error {
	if limiter == nil {
		return nil
	}
	err := limiter.Wait(ctx)
	if err != nil {
		return utils.NewTransportError(method, err)
	}
	return nil
}
