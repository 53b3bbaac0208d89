package fwconfig

import (
	"log/slog"
	"sync"
	"time"
)

// Loader owns the layered tree plus, when a RemoteSource is attached, the
// background watch loop that re-runs extraction on every reload signal and
// fans it out to subscribers (spec §4.2 "consumers (Logging, Registry)
// subscribe to the same channel").
type Loader struct {
	dir    string
	remote RemoteSource
	logger *slog.Logger

	mu   sync.RWMutex
	tree *Tree

	subsMu sync.Mutex
	subs   []chan *Tree

	stop chan struct{}
}

// NewLoader performs the initial Load and wires up remote.
func NewLoader(dir string, remote RemoteSource, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tree, err := LoadWithRemote(dir, remote)
	if err != nil {
		return nil, err
	}
	return &Loader{
		dir:    dir,
		remote: remote,
		logger: logger,
		tree:   tree,
		stop:   make(chan struct{}),
	}, nil
}

// Tree returns the currently active configuration tree.
func (l *Loader) Tree() *Tree {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree
}

// Subscribe returns a channel that receives the new tree after every
// successful reload. The channel is buffered by 1 so a slow subscriber
// never blocks the reload loop; it only ever sees the latest tree.
func (l *Loader) Subscribe() <-chan *Tree {
	ch := make(chan *Tree, 1)
	l.subsMu.Lock()
	l.subs = append(l.subs, ch)
	l.subsMu.Unlock()
	return ch
}

// Run starts the remote-source watch loop. It blocks until the source's
// Watch channel closes or Stop is called; callers typically run it in its
// own goroutine.
func (l *Loader) Run() {
	if l.remote == nil {
		return
	}
	changes, err := l.remote.Watch()
	if err != nil {
		l.logger.Error("remote config watch failed to start", "error", err)
		return
	}
	for {
		select {
		case <-l.stop:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			l.reload()
		}
	}
}

// Stop ends the watch loop started by Run.
func (l *Loader) Stop() {
	close(l.stop)
}

func (l *Loader) reload() {
	start := time.Now()
	tree, err := LoadWithRemote(l.dir, l.remote)
	reloadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		reloadTotal.WithLabelValues("error").Inc()
		l.logger.Error("config reload failed, keeping previous tree", "error", err)
		return
	}

	l.mu.Lock()
	l.tree = tree
	l.mu.Unlock()
	reloadTotal.WithLabelValues("success").Inc()

	l.subsMu.Lock()
	for _, ch := range l.subs {
		select {
		case ch <- tree:
		default:
			<-ch
			ch <- tree
		}
	}
	l.subsMu.Unlock()
}
