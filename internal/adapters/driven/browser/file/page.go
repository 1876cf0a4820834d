// Package file exposes a saved HTML page as a driven.Page.
//
// The file is watched with fsnotify and re-parsed when it changes, so a
// wait started before the browser finished saving still completes once
// the element lands on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/chatrelay/internal/adapters/driven/browser/memory"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

var log = logger.Scope("file")

// Ensure Page implements the interface.
var _ driven.Page = (*Page)(nil)

// DefaultReloadInterval is the minimum gap between two re-parses.
const DefaultReloadInterval = 100 * time.Millisecond

// Options configures Open.
type Options struct {
	// URL is reported as the page location. Site adapters only see the
	// saved document, so this decides which site the page belongs to.
	URL string

	// ReloadInterval throttles re-parsing while a file is being written.
	ReloadInterval time.Duration
}

// Page is a saved document backed by a memory page.
type Page struct {
	*memory.Page

	path    string
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	cancel  context.CancelFunc
	stopped chan struct{}
}

// Open reads path and starts watching it for changes.
// Call Close to stop the watcher.
func Open(path string, opts Options) (*Page, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved page: %w", err)
	}

	page, err := memory.NewPage("file:"+filepath.Base(abs), opts.URL, string(data))
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file watcher: %w", err)
	}
	// Watch the directory; editors and browsers often replace the file by rename.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("error watching %s: %w", filepath.Dir(abs), err)
	}

	interval := opts.ReloadInterval
	if interval <= 0 {
		interval = DefaultReloadInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		Page:    page,
		path:    abs,
		watcher: watcher,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go p.watch(ctx)

	return p, nil
}

// Path returns the absolute path of the watched file.
func (p *Page) Path() string {
	return p.path
}

// Close stops watching and closes the page.
func (p *Page) Close() error {
	p.cancel()
	err := p.watcher.Close()
	<-p.stopped
	p.Page.Close()
	return err
}

func (p *Page) watch(ctx context.Context) {
	defer close(p.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
			p.reload()
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error: %v", err)
		}
	}
}

func (p *Page) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		// Mid-rename; the following Create reloads it.
		log.Debug("skip reload of %s: %v", p.path, err)
		return
	}
	if err := p.SetHTML(string(data)); err != nil {
		log.Warn("failed to parse %s: %v", p.path, err)
		return
	}
	log.Debug("reloaded %s", p.path)
}
