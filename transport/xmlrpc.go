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
	"errors"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/kolo/xmlrpc"
	"golang.org/x/time/rate"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/utils"
)

// XMLRPCTransport invokes Service.{method} with string parameters.
// The server answers with a single string holding JSON text.
type XMLRPCTransport struct {
	mu      sync.Mutex
	base    string
	rt      http.RoundTripper
	client  *xmlrpc.Client
	limiter *rate.Limiter
}

func NewXMLRPCTransport(config_obj *config.Config) (*XMLRPCTransport, error) {
	base, err := parseBase(config_obj.Backend.Url)
	if err != nil {
		return nil, err
	}

	http_client, err := newRetryableClient(config_obj)
	if err != nil {
		return nil, utils.NewTransportError("connect", err)
	}

	result := &XMLRPCTransport{
		base:    base,
		rt:      &retryablehttp.RoundTripper{Client: http_client},
		limiter: newLimiter(config_obj),
	}

	result.client, err = xmlrpc.NewClient(result.base, result.rt)
	if err != nil {
		return nil, utils.NewTransportError("connect", err)
	}
	return result, nil
}

// The rpc client shuts down for good when the server answers with a
// bad HTTP status, so the next call starts a fresh one.
func (self *XMLRPCTransport) getClient() (*xmlrpc.Client, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.client == nil {
		client, err := xmlrpc.NewClient(self.base, self.rt)
		if err != nil {
			return nil, err
		}
		self.client = client
	}
	return self.client, nil
}

func (self *XMLRPCTransport) reset(client *xmlrpc.Client) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.client == client {
		self.client.Close()
		self.client = nil
	}
}

func (self *XMLRPCTransport) Call(
	ctx context.Context, method string, args ...string) (string, error) {
	err := waitLimiter(ctx, self.limiter, method)
	if err != nil {
		return "", err
	}

	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		params = append(params, arg)
	}

	client, err := self.getClient()
	if err != nil {
		return "", utils.NewTransportError(method, err)
	}

	var result string
	call := client.Go(constants.XMLRPC_SERVICE_PREFIX+method,
		params, &result, make(chan *rpc.Call, 1))

	select {
	case <-ctx.Done():
		return "", utils.NewTransportError(method, ctx.Err())

	case <-call.Done:
		if call.Error != nil {
			if errors.Is(call.Error, rpc.ErrShutdown) {
				self.reset(client)
			}
			return "", utils.NewTransportError(method, call.Error)
		}
		return result, nil
	}
}

func (self *XMLRPCTransport) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.client == nil {
		return nil
	}
	err := self.client.Close()
	self.client = nil
	return err
}
