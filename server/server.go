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

package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/sources"
	"www.velocidex.com/golang/procwatch/utils"
)

// NewMux mounts the method surface at / and prometheus metrics at
// /metrics.
func NewMux(config_obj *config.Config,
	source sources.ProcessDataSource) *http.ServeMux {
	logger := logging.GetLogger(config_obj, &logging.ServerComponent)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", NewHandler(source, logger))
	return mux
}

// StartServer listens on the configured address until ctx is
// done. It returns the bound address which is useful when listening
// on port 0.
func StartServer(ctx context.Context, wg *sync.WaitGroup,
	config_obj *config.Config, source sources.ProcessDataSource) (string, error) {
	logger := logging.GetLogger(config_obj, &logging.ServerComponent)

	listener, err := net.Listen("tcp", config_obj.Server.Listen)
	if err != nil {
		return "", err
	}

	server := &http.Server{
		Handler:  NewMux(config_obj, source),
		ErrorLog: log.New(logger.Writer(), "", 0),

		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  300 * time.Second,
	}

	addr := listener.Addr().String()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer utils.CheckForPanic("server: serving %v", addr)

		logger.Info("Server is ready to handle requests at http://%v/", addr)

		err := server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			logger.Error("Server error %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		logger.Info("Shutting down server")

		time_ctx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		err := server.Shutdown(time_ctx)
		if err != nil {
			logger.Error("Server shutdown error %v", err)
		}
	}()

	return addr, nil
}
