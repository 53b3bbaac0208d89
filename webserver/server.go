package webserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vitaliisemenov/corefx/ferr"
)

// Server is the web server core (spec §4.7.1): an app identity, a
// WebServerConfig, a mutex-guarded ServerState, and the ordered list of
// module initializers that built the currently-mounted router.
type Server struct {
	appName string
	version string
	cfg     Config
	logger  *slog.Logger

	mu    sync.Mutex
	state serverState

	router       *mux.Router
	initializers []moduleInitializer

	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener

	done chan struct{}
}

// New builds a Server in the Halted state. Modules may be added before or
// after Start; AddModule compiles and mounts immediately either way.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		appName: cfg.AppName,
		version: cfg.Version,
		cfg:     cfg,
		logger:  logger,
		router:  mux.NewRouter(),
		done:    make(chan struct{}),
	}
}

// AddModule nests module's compiled routes under "/<code>" and runs its
// initializer immediately (spec §4.7.1 "add_module"). An empty code mounts
// at the root, identical to AddRoute.
func (s *Server) AddModule(code string, m Module) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initializers = append(s.initializers, moduleInitializer{code: code, module: m})

	var sub *mux.Router
	if code == "" {
		sub = s.router.PathPrefix("/").Subrouter()
	} else {
		sub = s.router.PathPrefix("/" + code).Subrouter()
	}
	s.applyMiddlewareStack(sub, m)
	m.Mount(sub)
}

// AddRoute is AddModule("", m) (spec §4.7.1 "add_route").
func (s *Server) AddRoute(m Module) { s.AddModule("", m) }

// applyMiddlewareStack wires the fixed per-module stack of spec §4.7.2.
// The list there is given innermost-first; Cors is applied first (so it
// ends up outermost, matching "outermost last" in the spec's own ordering
// description), then optional UniformError, then user middleware, then
// optional OpenTelemetryTracing, then Tracing, then CatchPanic innermost.
func (s *Server) applyMiddlewareStack(r *mux.Router, m Module) {
	r.Use(Cors(s.cfg.AllowedOrigin))

	if m.Options.UniformError || s.cfg.SecurityHideErrMsg {
		r.Use(UniformError(s.logger, s.cfg.SecurityHideErrMsg))
	}
	if m.Middleware != nil {
		r.Use(m.Middleware)
	}
	r.Use(OpenTelemetryTracing(s.appName))
	r.Use(Tracing(s.logger))
	r.Use(CatchPanic(s.logger))
}

// AddGRPCModule registers m on the gRPC server, lazily constructing it on
// first call, with reflection and the standard health service attached
// automatically (spec §4.7.1).
func (s *Server) AddGRPCModule(code string, m GRPCModule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grpcServer == nil {
		s.grpcServer = grpc.NewServer()
		hs := health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, hs)
		reflection.Register(s.grpcServer)
	}
	m.Register(s.grpcServer)
}

// AddDocs mounts Swagger/OpenAPI UI at cfg.DocPath (default "/docs"),
// grounded on the teacher's swaggo/http-swagger usage.
func (s *Server) AddDocs(specName string) {
	path := s.cfg.DocPath
	if path == "" {
		path = "/docs"
	}
	s.router.PathPrefix(path).Handler(httpSwagger.Handler(httpSwagger.URL(specName)))
}

// HealthCheckHandler returns a minimal liveness handler, grounded on the
// teacher's HealthCheckHandler (internal/api/router.go).
func HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, OK(map[string]string{"status": "ok"}))
	}
}

// Start takes the Server out of Halted: it builds the HTTP listener
// (optionally TLS, from inline key/cert material) and, if any gRPC module
// was added, a second listener on GRPCPort, then serves both in background
// goroutines (spec §4.7.3 "start()"). Calling Start twice is an error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateRunning {
		return ferr.Conflict("server already running")
	}
	s.done = make(chan struct{})

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return ferr.Internal("binding %s: %v", addr, err)
	}
	if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
		cert, err := tls.X509KeyPair([]byte(s.cfg.TLSCert), []byte(s.cfg.TLSKey))
		if err != nil {
			return ferr.Internal("loading inline TLS material: %v", err)
		}
		listener = tls.NewListener(listener, &tls.Config{Certificates: []tls.Certificate{cert}})
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server exited", "error", err)
		}
	}()

	if s.grpcServer != nil {
		grpcAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.GRPCPort)
		grpcLis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return ferr.Internal("binding gRPC %s: %v", grpcAddr, err)
		}
		s.grpcLis = grpcLis
		go func() {
			if err := s.grpcServer.Serve(grpcLis); err != nil {
				s.logger.Error("grpc server exited", "error", err)
			}
		}()
	}

	s.state = stateRunning
	return nil
}

// Shutdown gracefully stops both listeners within cfg.GracefulShutdown
// (spec §4.7.3 "shutdown()"); a timeout is logged but still leaves the
// state Halted. No-op if already Halted.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateHalted {
		return nil
	}

	timeout := s.cfg.GracefulShutdown
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Error("http server graceful shutdown timed out", "error", shutdownErr)
		err = shutdownErr
	}
	if s.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			s.grpcServer.Stop()
			s.logger.Error("grpc server graceful shutdown timed out, forced stop")
		}
	}

	s.state = stateHalted
	close(s.done)
	return err
}

// Wait blocks until the server reaches Halted (via Shutdown) or ctx is
// done, re-expressing the spec's 100ms-polling Future as a channel wait
// (REDESIGN, see DESIGN.md).
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
