// Package webserver is the web server core (spec §4.7): a mux.Router-based
// module registry with a fixed per-module middleware stack, a uniform error
// mapping, and an envelope-shaped response convention, plus a second
// listener for mounted gRPC modules.
package webserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

// ModuleOptions are the per-module switches the middleware composition in
// §4.7.2 reads (alongside the webserver's own config-level defaults).
type ModuleOptions struct {
	// UniformError forces the UniformError middleware onto this module even
	// when the server-level config doesn't default it on.
	UniformError bool
}

// Module bundles what AddModule mounts under one path prefix: a route
// mounter, optional user middleware, and per-module options (spec §4.7.1
// "module bundles an OpenAPI-implementing APIs object... an optional
// middleware, and per-module options"). Data attachment is handled by
// storing values in Options/closures rather than a generic "data" slot,
// since Go has no dynamic-typed extractor equivalent to poem's Data<T>.
type Module struct {
	// Mount registers the module's routes onto r, which is already scoped
	// under the module's path prefix.
	Mount func(r *mux.Router)
	// Middleware is optional user middleware applied after Tracing/
	// OpenTelemetryTracing and before UniformError (spec §4.7.2 step 4).
	Middleware mux.MiddlewareFunc
	Options    ModuleOptions
}

// GRPCModule bundles what AddGRPCModule mounts on the gRPC listener:
// Register wires the service onto the *grpc.Server; reflection and the
// standard health service are attached automatically by AddGRPCModule so
// every module doesn't have to repeat that boilerplate (spec §4.7.1
// "reflection and health services are attached automatically").
type GRPCModule struct {
	Register func(*grpc.Server)
}

// Config is the server-level configuration (spec §4.7.1 "WebServerConfig"),
// read from fwconfig.WebServerModuleConfig plus app identity.
type Config struct {
	AppName string
	Version string
	fwconfig.WebServerModuleConfig
}

type serverState int

const (
	stateHalted serverState = iota
	stateRunning
)

type moduleInitializer struct {
	code   string
	module Module
}

// responseRecorder wraps http.ResponseWriter to capture the status code
// CatchPanic/Tracing need to log, the same shape the teacher's logging
// middleware uses (internal/api/middleware/logging.go responseWriter).
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}
