// Package main runs a demo server that wires up every framework family
// (spec §1): it loads configuration, brings up the process-wide Registry,
// mounts a sample module behind the context-extraction and uniform-error
// middleware, and serves until an interrupt or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/corefx"
	"github.com/vitaliisemenov/corefx/fwconfig"
	"github.com/vitaliisemenov/corefx/webclient"
	"github.com/vitaliisemenov/corefx/webctx"
	"github.com/vitaliisemenov/corefx/webserver"
)

const (
	serviceName    = "corefx-demo"
	serviceVersion = "1.0.0"
)

func main() {
	confDir := flag.String("conf", "./config", "configuration directory (layered defaults+overrides)")
	showVersion := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", serviceName, serviceVersion)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := corefx.Init(ctx, *confDir); err != nil {
		fmt.Fprintf(os.Stderr, "initializing framework registry: %v\n", err)
		os.Exit(1)
	}
	reg := corefx.Default()
	logger := reg.Logger()
	defer reg.Shutdown(context.Background())

	loader, err := fwconfig.NewLoader(*confDir, nil, logger.Logger)
	if err != nil {
		logger.Error("building config loader", "error", err)
		os.Exit(1)
	}
	go loader.Run()
	defer loader.Stop()
	reg.AttachLoader(loader)
	go reg.WatchReload(ctx)

	tree := loader.Tree()
	srv := webserver.New(webserver.Config{
		AppName:               serviceName,
		Version:               serviceVersion,
		WebServerModuleConfig: tree.FW.WebServer.Default,
	}, logger.Logger)

	ctxHeaderName := tree.FW.WebServer.Default.ContextHeaderName
	tokenCacheKey := tree.FW.WebServer.Default.TokenCacheKey
	defaultCache, _ := reg.Cache()

	srv.AddModule("widgets", webserver.Module{
		Mount: mountWidgets,
		Middleware: func(next http.Handler) http.Handler {
			return webctx.Middleware(webctx.Config{
				HeaderName:    ctxHeaderName,
				TokenCacheKey: tokenCacheKey,
				Cache:         defaultCache,
			})(next)
		},
		Options: webserver.ModuleOptions{UniformError: true},
	})

	srv.AddRoute(webserver.Module{
		Mount: func(r *mux.Router) {
			r.HandleFunc("/healthz", webserver.HealthCheckHandler()).Methods(http.MethodGet)
		},
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error("starting web server", "error", err)
		os.Exit(1)
	}
	logger.Info("server started", "host", tree.FW.WebServer.Default.Host, "port", tree.FW.WebServer.Default.Port)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// mountWidgets is a minimal sample module exercising ModuleView, WebClient,
// and the TardisResp envelope end to end.
func mountWidgets(r *mux.Router) {
	r.HandleFunc("/{id}", func(w http.ResponseWriter, req *http.Request) {
		view := corefx.Inst("widgets", "en")
		cc, _ := webctx.FromContext(req.Context())

		id := mux.Vars(req)["id"]
		wc, ok := view.WebClient()
		if !ok {
			webserver.WriteTardisError(w, view.Err().Internal("widget", "get", "no webclient configured", ""))
			return
		}

		resp, err := webclient.GetToObj[map[string]any](req.Context(), wc, "https://example.invalid/widgets/"+id, nil)
		if err != nil {
			webserver.WriteTardisError(w, view.Err().NotFound("widget", "get", err.Error(), ""))
			return
		}

		payload := map[string]any{"id": id, "upstream": resp.Body}
		if cc != nil {
			payload["owner"] = cc.Owner
		}
		webserver.WriteJSON(w, http.StatusOK, webserver.OK(payload))
	}).Methods(http.MethodGet)
}
