package config

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

type watcher struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		path    string
		enabled bool
	}
	envs        map[string]string
	configurers []internal.Configurer
	watcher     *fsnotify.Watcher
	ctx         context.Context
	cancel      context.CancelFunc
	utilities.Logger
}

// NewWatcher reconfigures every internal.Configurer provided as a parameter
// when the config file changes
func NewWatcher(parameters ...any) interface {
	internal.Configurer
	internal.Opener
} {
	w := &watcher{
		Logger: utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case internal.Configurer:
			w.configurers = append(w.configurers, p)
		}
		if logger, ok := parameter.(utilities.Logger); ok {
			w.Logger = logger
		}
	}
	return w
}

func (w *watcher) reload(ctx context.Context) {
	w.RLock()
	path, environ := w.config.path, w.envs
	w.RUnlock()

	file, err := ReadFile(path)
	if err != nil {
		w.Error(ctx, "error while reading config file: %s", err)
		return
	}
	envs := Merge(environ, file)
	for _, configurer := range w.configurers {
		if err := configurer.Configure(envs); err != nil {
			w.Error(ctx, "error while reconfiguring: %s", err)
		}
	}
	w.Debug(ctx, "reloaded config file: %s", path)
}

func (w *watcher) launchWatch() {
	started := make(chan struct{})
	w.Add(1)
	go func() {
		defer w.Done()

		close(started)
		for {
			select {
			case <-w.ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.config.path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					w.reload(w.ctx)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.Error(w.ctx, "error while watching config file: %s", err)
			}
		}
	}()
	<-started
}

// Configure expects the environment without the config file merged in (i.e.
// not the output of Load), the file is merged under it on every reload;
// CONFIG_WATCH may be set in either
func (w *watcher) Configure(envs map[string]string) error {
	w.Lock()
	defer w.Unlock()

	w.envs = envs
	if path := envs["CONFIG_FILE"]; path != "" {
		w.config.path = filepath.Clean(path)
	}
	enabled, ok := envs["CONFIG_WATCH"]
	if !ok && w.config.path != "" {
		file, err := ReadFile(w.config.path)
		if err != nil {
			return err
		}
		enabled, ok = file["CONFIG_WATCH"]
	}
	if ok {
		w.config.enabled, _ = strconv.ParseBool(enabled)
	}
	return nil
}

func (w *watcher) Open(ctx context.Context) error {
	w.Lock()
	defer w.Unlock()

	if !w.config.enabled || w.config.path == "" {
		return nil
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	//KIM: editors often replace the file rather than write it, so the
	// directory is watched instead of the file
	if err := fsWatcher.Add(filepath.Dir(w.config.path)); err != nil {
		_ = fsWatcher.Close()
		return errors.Wrapf(err, "unable to watch %s", w.config.path)
	}
	w.watcher = fsWatcher
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.launchWatch()
	w.Info(ctx, "watching config file: %s", w.config.path)
	return nil
}

func (w *watcher) Close(ctx context.Context) error {
	w.Lock()
	defer w.Unlock()

	if w.watcher == nil {
		return nil
	}
	w.cancel()
	w.Wait()
	if err := w.watcher.Close(); err != nil {
		w.Error(ctx, "error while closing config watcher: %s", err)
	}
	w.watcher = nil
	return nil
}
