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
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"www.velocidex.com/golang/procwatch/codec"
	"www.velocidex.com/golang/procwatch/constants"
	"www.velocidex.com/golang/procwatch/logging"
	"www.velocidex.com/golang/procwatch/sources"
	"www.velocidex.com/golang/procwatch/utils"
)

// Each method answers with the JSON payload, or pres=false for a null
// result.
type methodFunc func(ctx context.Context,
	source sources.ProcessDataSource, args []string) (interface{}, bool, error)

type method struct {
	nargs int

	// The first nargs_int arguments must be integers.
	nargs_int int
	handler   methodFunc
}

type badRequest struct {
	msg string
}

func (self badRequest) Error() string {
	return self.msg
}

var methods = map[string]method{
	constants.METHOD_GET_PROCESSES: {0, 0,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			result, err := source.ListProcesses(ctx)
			return result, true, err
		}},

	constants.METHOD_GET_LWPS: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.ListThreads(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_INFO: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.GetInfo(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_STATUS: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.GetStatus(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_USAGE: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.GetUsage(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_LWP_INFO: {2, 2,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.GetThreadInfo(ctx, atoi(args[0]), atoi(args[1]))
		}},

	constants.METHOD_GET_LWP_STATUS: {2, 2,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.GetThreadStatus(ctx, atoi(args[0]), atoi(args[1]))
		}},

	constants.METHOD_GET_LWP_USAGE: {2, 2,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.GetThreadUsage(ctx, atoi(args[0]), atoi(args[1]))
		}},

	constants.METHOD_GET_USER_NAME: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.ResolveUserName(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_GROUP_NAME: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.ResolveGroupName(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_PROJECT_NAME: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.ResolveProjectName(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_ZONE_NAME: {1, 1,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			return source.ResolveZoneName(ctx, atoi(args[0]))
		}},

	constants.METHOD_GET_USER_ID: {1, 0,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			id, err := source.ResolveUserId(ctx, args[0])
			return id, true, err
		}},

	constants.METHOD_GET_GROUP_ID: {1, 0,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			id, err := source.ResolveGroupId(ctx, args[0])
			return id, true, err
		}},

	constants.METHOD_GET_PROJECT_ID: {1, 0,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			id, err := source.ResolveProjectId(ctx, args[0])
			return id, true, err
		}},

	constants.METHOD_GET_ZONE_ID: {1, 0,
		func(ctx context.Context, source sources.ProcessDataSource,
			args []string) (interface{}, bool, error) {
			id, err := source.ResolveZoneId(ctx, args[0])
			return id, true, err
		}},
}

// Arguments are validated before the handler runs.
func atoi(arg string) int {
	result, _ := strconv.Atoi(arg)
	return result
}

// Splits /{method}/{arg1}/{arg2} keeping escaped slashes inside
// arguments.
func parsePath(escaped_path string) (string, []string, error) {
	components := strings.Split(strings.Trim(escaped_path, "/"), "/")
	result := make([]string, 0, len(components))
	for _, component := range components {
		unescaped, err := url.PathUnescape(component)
		if err != nil {
			return "", nil, badRequest{msg: err.Error()}
		}
		result = append(result, unescaped)
	}
	return result[0], result[1:], nil
}

func dispatch(ctx context.Context, source sources.ProcessDataSource,
	name string, args []string) (string, error) {
	method, pres := methods[name]
	if !pres {
		return "", badRequest{msg: fmt.Sprintf("unknown method %q", name)}
	}

	if len(args) != method.nargs {
		return "", badRequest{msg: fmt.Sprintf(
			"%v expects %d arguments, got %d", name, method.nargs, len(args))}
	}

	for i := 0; i < method.nargs_int; i++ {
		_, err := strconv.Atoi(args[i])
		if err != nil {
			return "", badRequest{msg: fmt.Sprintf(
				"%v: argument %d must be an integer", name, i+1)}
		}
	}

	result, pres, err := method.handler(ctx, source, args)
	if err != nil {
		return "", err
	}

	if !pres {
		return "null", nil
	}
	return codec.Encode(result)
}

// NewHandler publishes a data source with the remote method surface
// so another procwatch can use it as a json backend.
func NewHandler(source sources.ProcessDataSource,
	logger *logging.LogContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, Status: http.StatusOK}

		name, args, err := parsePath(r.URL.EscapedPath())
		if err == nil && r.Method != http.MethodGet {
			err = badRequest{msg: "only GET is supported"}
		}

		payload := ""
		if err == nil {
			payload, err = dispatch(r.Context(), source, name, args)
		}

		fields := logrus.Fields{
			"method":   name,
			"args":     args,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start).String(),
		}

		switch err.(type) {
		case nil:
			rec.Header().Set("Content-Type", "application/json")
			rec.WriteHeader(http.StatusOK)
			_, _ = rec.Write([]byte(payload))

		case badRequest:
			http.Error(rec, err.Error(), http.StatusBadRequest)

		default:
			if !utils.IsTransportError(err) &&
				!utils.IsInitError(err) &&
				!utils.IsConfigurationError(err) {
				http.Error(rec, err.Error(), http.StatusInternalServerError)
			} else {
				http.Error(rec, err.Error(), http.StatusBadGateway)
			}
		}

		fields["status"] = rec.Status
		if err != nil {
			fields["error"] = err.Error()
			logger.WithFields(fields).Warn("request failed")
		} else {
			logger.WithFields(fields).Debug("request")
		}

		label := name
		if _, pres := methods[name]; !pres {
			label = "unknown"
		}
		httpRequestCounters.WithLabelValues(
			label, fmt.Sprintf("%v", rec.Status)).Inc()
	})
}
