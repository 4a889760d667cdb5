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
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/utils"
)

// HTTPTransport maps a call to GET {base}/{method}/{arg1}/{arg2}.
type HTTPTransport struct {
	base    string
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

func NewHTTPTransport(config_obj *config.Config) (*HTTPTransport, error) {
	base, err := parseBase(config_obj.Backend.Url)
	if err != nil {
		return nil, err
	}

	client, err := newRetryableClient(config_obj)
	if err != nil {
		return nil, utils.NewTransportError("connect", err)
	}

	return &HTTPTransport{
		base:    base,
		client:  client,
		limiter: newLimiter(config_obj),
	}, nil
}

func parseBase(base string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", utils.NewConfigurationError("Backend.url", base,
			"not a valid absolute url")
	}
	return strings.TrimSuffix(base, "/"), nil
}

func (self *HTTPTransport) requestUrl(method string, args ...string) string {
	parts := []string{self.base, url.PathEscape(method)}
	for _, arg := range args {
		parts = append(parts, url.PathEscape(arg))
	}
	return strings.Join(parts, "/")
}

func (self *HTTPTransport) Call(
	ctx context.Context, method string, args ...string) (string, error) {
	err := waitLimiter(ctx, self.limiter, method)
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(
		ctx, "GET", self.requestUrl(method, args...), nil)
	if err != nil {
		return "", utils.NewTransportError(method, err)
	}
	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Accept", "application/json")

	resp, err := self.client.Do(req)
	if err != nil {
		return "", utils.NewTransportError(method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", utils.NewTransportError(method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", utils.NewTransportError(method,
			fmt.Errorf("server returned %v", resp.Status))
	}

	return string(body), nil
}

func (self *HTTPTransport) Close() error {
	self.client.HTTPClient.CloseIdleConnections()
	return nil
}
