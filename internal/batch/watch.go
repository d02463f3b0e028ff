package batch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Watch processes the request's existing paths, then watches root and
// enqueues eligible files as they are created or rewritten. Rapid event
// bursts for one file coalesce behind the configured debounce window, so
// a file still being written is picked up once, after it settles.
//
// Watch returns when ctx is canceled: dispatch stops, in-flight documents
// finish their current stage, and the summary covers everything attempted.
func (c *Coordinator) Watch(ctx context.Context, req Request, root string) (*Summary, error) {
	if err := c.prepare(req); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(root); err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	acc := &accumulator{}
	g := new(errgroup.Group)
	g.SetLimit(c.workers())

	dispatch := func(path string) {
		g.Go(func() error {
			acc.add(c.processOne(ctx, req, path))
			return nil
		})
	}
	for _, path := range req.Paths {
		dispatch(path)
	}
	c.deps.Logger.Info(ctx, "watching for new documents",
		zap.String("root", root),
		zap.Int("seeded", len(req.Paths)),
		zap.Duration("debounce", c.cfg.WatchDebounce.Duration()))

	// Debounce timers fire into ready; the loop below is the only
	// dispatcher, so shutdown has a single place to drain.
	ready := make(chan string)
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	schedule := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[name]; ok {
			t.Reset(c.cfg.WatchDebounce.Duration())
			return
		}
		pending[name] = time.AfterFunc(c.cfg.WatchDebounce.Duration(), func() {
			select {
			case ready <- name:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range pending {
				t.Stop()
			}
			mu.Unlock()
			_ = g.Wait()
			return acc.summary(), nil

		case name := <-ready:
			mu.Lock()
			delete(pending, name)
			mu.Unlock()
			if ctx.Err() == nil {
				dispatch(name)
			}

		case ev, ok := <-watcher.Events:
			if !ok {
				_ = g.Wait()
				return acc.summary(), nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !Eligible(ev.Name, req.Op) {
				continue
			}
			schedule(ev.Name)

		case werr, ok := <-watcher.Errors:
			if !ok {
				_ = g.Wait()
				return acc.summary(), nil
			}
			c.deps.Logger.Warn(ctx, "watcher error", zap.Error(werr))
		}
	}
}
