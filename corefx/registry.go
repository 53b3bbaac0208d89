package corefx

import (
	"context"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/vitaliisemenov/corefx/cache"
	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
	"github.com/vitaliisemenov/corefx/fwlog"
	"github.com/vitaliisemenov/corefx/mail"
	"github.com/vitaliisemenov/corefx/mq"
	"github.com/vitaliisemenov/corefx/objstore"
	"github.com/vitaliisemenov/corefx/reldb"
	"github.com/vitaliisemenov/corefx/search"
	"github.com/vitaliisemenov/corefx/webclient"
)

// Registry is the process-wide Framework Registry (spec §4.1): one instance
// map per component family, built and swapped atomically on Init/InitConf,
// backing every ModuleView it hands out.
type Registry struct {
	logger *fwlog.Logger
	loader *fwconfig.Loader

	db        *instanceMap[*reldb.Client]
	cacheM    *instanceMap[*cache.Client]
	mqM       *instanceMap[*mq.Client]
	mailM     *instanceMap[*mail.Client]
	osM       *instanceMap[*objstore.Client]
	searchM   *instanceMap[*search.Client]
	webClient *instanceMap[*webclient.Client]
	cluster   *instanceMap[*ClusterClient]

	cs  map[string]any
	csm map[string]map[string]any

	mu       sync.Mutex
	initMu   sync.Mutex
	initDone bool
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide Registry, constructing it (empty,
// uninitialized) on first use (spec §4.1 "one process-wide Registry").
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = newRegistry()
	})
	return defaultRegistry
}

func newRegistry() *Registry {
	return &Registry{
		db:        newInstanceMap[*reldb.Client](),
		cacheM:    newInstanceMap[*cache.Client](),
		mqM:       newInstanceMap[*mq.Client](),
		mailM:     newInstanceMap[*mail.Client](),
		osM:       newInstanceMap[*objstore.Client](),
		searchM:   newInstanceMap[*search.Client](),
		webClient: newInstanceMap[*webclient.Client](),
		cluster:   newInstanceMap[*ClusterClient](),
	}
}

// New builds and initializes a fresh Registry from the layered config tree
// rooted at dir, without touching Default(). Most callers want Init, which
// initializes the process-wide singleton instead.
func New(ctx context.Context, dir string) (*Registry, error) {
	tree, err := fwconfig.Load(dir)
	if err != nil {
		return nil, ferr.Internal("loading configuration: %v", err)
	}
	r := newRegistry()
	if err := r.InitConf(ctx, tree); err != nil {
		return nil, err
	}
	return r, nil
}

// Init loads dir's configuration tree and initializes Default() from it
// (spec §4.1 "Init(dir)"), guarded so repeated calls are a no-op after the
// first successful one.
func Init(ctx context.Context, dir string) error {
	reg := Default()
	reg.initMu.Lock()
	defer reg.initMu.Unlock()
	if reg.initDone {
		return nil
	}
	tree, err := fwconfig.Load(dir)
	if err != nil {
		return ferr.Internal("loading configuration: %v", err)
	}
	if err := reg.InitConf(ctx, tree); err != nil {
		return err
	}
	reg.initDone = true
	return nil
}

// InitConf initializes (or re-initializes) r from an already-assembled
// configuration tree (spec §4.1 "InitConf(cfg)"). Every family's instance
// map is built into local variables first, from its default block and named
// modules; the families' Enabled flags are not consulted, so a disabled
// family is built like an enabled one. Only once every family has succeeded
// are the registry's stored maps swapped, so a failure midway
// leaves the previous state (or the empty zero state) fully intact — no
// partial registry is ever observable (spec §4.1 "partial state is not left
// behind").
func (r *Registry) InitConf(ctx context.Context, tree *fwconfig.Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fw := tree.FW

	logger, err := r.bringUpLogger(fw)
	if err != nil {
		return err
	}

	dbs, err := buildFamily(fw.DB, func(c fwconfig.DBModuleConfig) (*reldb.Client, error) {
		if c.URL == "" {
			return nil, nil
		}
		return reldb.New(ctx, c, logger.Logger)
	})
	if err != nil {
		return ferr.Internal("initializing reldb family: %v", err)
	}

	webClients, err := buildFamily(fw.WebClient, func(c fwconfig.WebClientModuleConfig) (*webclient.Client, error) {
		return webclient.New(c), nil
	})
	if err != nil {
		return ferr.Internal("initializing webclient family: %v", err)
	}

	caches, err := buildFamily(fw.Cache, func(c fwconfig.CacheModuleConfig) (*cache.Client, error) {
		return cache.New(c), nil
	})
	if err != nil {
		return ferr.Internal("initializing cache family: %v", err)
	}

	mqs, err := buildFamily(fw.MQ, func(c fwconfig.MQModuleConfig) (*mq.Client, error) {
		if c.URL == "" {
			return nil, nil
		}
		return mq.New(c, logger.Logger)
	})
	if err != nil {
		return ferr.Internal("initializing mq family: %v", err)
	}

	searches, err := buildFamily(fw.Search, func(c fwconfig.SearchModuleConfig) (*search.Client, error) {
		if c.URL == "" {
			return nil, nil
		}
		return search.New(c)
	})
	if err != nil {
		return ferr.Internal("initializing search family: %v", err)
	}

	mails, err := buildFamily(fw.Mail, func(c fwconfig.MailModuleConfig) (*mail.Client, error) {
		return mail.New(c), nil
	})
	if err != nil {
		return ferr.Internal("initializing mail family: %v", err)
	}

	stores, err := buildFamily(fw.OS, func(c fwconfig.OSModuleConfig) (*objstore.Client, error) {
		if c.Bucket == "" && c.Endpoint == "" {
			return nil, nil
		}
		return objstore.New(ctx, c)
	})
	if err != nil {
		return ferr.Internal("initializing objstore family: %v", err)
	}

	clusters, err := buildFamily(fw.Cluster, func(c fwconfig.ClusterModuleConfig) (*ClusterClient, error) {
		return newClusterClient(c, caches[""]), nil
	})
	if err != nil {
		return ferr.Internal("initializing cluster family: %v", err)
	}

	// Every family built cleanly: swap every instance map over together.
	r.logger = logger
	r.db.store(dbs)
	r.webClient.store(webClients)
	r.cacheM.store(caches)
	r.mqM.store(mqs)
	r.searchM.store(searches)
	r.mailM.store(mails)
	r.osM.store(stores)
	r.cluster.store(clusters)
	r.cs = tree.Custom.CS
	r.csm = tree.Custom.CSM

	return nil
}

// bringUpLogger builds the logger exactly once per process per spec's
// "fwlog once" bring-up step; subsequent InitConf calls (config reload)
// instead push the new LogConfig into the existing logger via UpdateConfig.
func (r *Registry) bringUpLogger(fw fwconfig.FrameworkConfig) (*fwlog.Logger, error) {
	if r.logger != nil {
		if err := r.logger.UpdateConfig(fw.App.Name, fw.Log); err != nil {
			return nil, ferr.Internal("updating logger config: %v", err)
		}
		return r.logger, nil
	}
	logger, err := fwlog.Init(fw.App.Name, fw.Log)
	if err != nil {
		return nil, ferr.Internal("initializing logger: %v", err)
	}
	return logger, nil
}

// AttachLoader wires loader into r so WatchReload can react to every
// subsequent reload (spec §4.2 "consumers (Logging, Registry) subscribe to
// the same channel"). Call once, after the Registry's initial InitConf.
func (r *Registry) AttachLoader(loader *fwconfig.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loader = loader
}

// WatchReload blocks, re-running InitConf against every tree pushed by the
// attached Loader until ctx is done. A failed InitConf is logged and leaves
// the Registry on its previous state, per InitConf's all-or-nothing swap.
// No-op if AttachLoader was never called.
func (r *Registry) WatchReload(ctx context.Context) {
	r.mu.Lock()
	loader := r.loader
	r.mu.Unlock()
	if loader == nil {
		return
	}
	ch := loader.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case tree, ok := <-ch:
			if !ok {
				return
			}
			if err := r.InitConf(ctx, tree); err != nil {
				if l := r.Logger(); l != nil {
					l.Error("registry reload failed, keeping previous state", "error", err)
				}
			}
		}
	}
}

// Logger returns the Registry's logger, or nil before Init.
func (r *Registry) Logger() *fwlog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger
}

// Shutdown releases every held resource (spec §4.1 "Shutdown(ctx)"):
// database pools, MQ connections, cache clients, and the logger/tracer
// provider, in roughly reverse bring-up order. The first error is returned
// after every resource has been given a chance to close.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, c := range r.mqM.all() {
		if c != nil {
			record(c.Close())
		}
	}
	for _, c := range r.cacheM.all() {
		if c != nil {
			record(c.Close())
		}
	}
	for _, c := range r.db.all() {
		if c != nil {
			c.Close()
		}
	}
	if r.logger != nil {
		record(r.logger.Shutdown(ctx))
	}
	return firstErr
}

// CsConfig decodes the process-wide Registry's "cs"/"csm" custom-config
// sub-tree entry for code into T (spec §4.1 "cs_config<T>(code)"). An empty
// code reads the top-level "cs" bucket; any other code reads its per-module
// "csm" override, falling back to the top-level bucket if absent. Go methods
// cannot introduce new type parameters, so this is a free function taking
// the registry explicitly via RegistryCsConfig when not using Default().
func CsConfig[T any](code string) (T, error) {
	return RegistryCsConfig[T](Default(), code)
}

// RegistryCsConfig is CsConfig against an explicit Registry instead of
// Default().
func RegistryCsConfig[T any](r *Registry, code string) (T, error) {
	var out T
	r.mu.Lock()
	raw, ok := r.moduleCsLocked(code)
	r.mu.Unlock()
	if !ok {
		return out, ferr.NotFound("no custom config registered for %q", code)
	}
	if err := mapstructure.Decode(raw, &out); err != nil {
		return out, ferr.Internal("decoding custom config %q: %v", code, err)
	}
	return out, nil
}

func (r *Registry) moduleCsLocked(code string) (any, bool) {
	if code == "" {
		if r.cs == nil {
			return nil, false
		}
		return r.cs, true
	}
	if m, ok := r.csm[code]; ok {
		return m, true
	}
	if r.cs == nil {
		return nil, false
	}
	return r.cs, true
}
