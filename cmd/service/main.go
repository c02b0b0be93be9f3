package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/config"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/logic"
	"github.com/antonio-alexander/go-employees-api/internal/service"
	"github.com/antonio-alexander/go-employees-api/internal/storage"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	pwd, _ := os.Getwd()
	args := os.Args[1:]
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(pwd, args, config.Environ(), osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func Main(pwd string, args []string, environ map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//merge the config file (if any) under the environment
	envs, err := config.Load(environ)
	if err != nil {
		return err
	}

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create utilities
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	timers := utilities.NewTimers()
	counter := utilities.NewCounter()

	//print version info
	logger.Info(ctx, "server: go-employees-api v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	//create storage, configure and open
	storage, err := storage.New(envs, logger)
	if err != nil {
		return err
	}
	if err := storage.Configure(envs); err != nil {
		return err
	}
	if err := storage.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing storage: %s", err)
		}
	}()

	// create cache
	cache, err := cache.New(envs, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		if err := cache.Configure(envs); err != nil {
			return err
		}
		if err := cache.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(context.Background()); err != nil {
				logger.Error(context.Background(), "error while closing cache: %s", err)
			}
		}()
	}

	//create logic, configure and open
	logic := logic.NewLogic(storage, cache, logger, counter)
	if err := logic.Configure(envs); err != nil {
		return err
	}
	if err := logic.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := logic.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing logic: %s", err)
		}
	}()

	//create service, configure and open
	service := service.NewService(logic, cache, logger, counter, timers)
	if err := service.Configure(envs); err != nil {
		return err
	}
	if err := service.Open(ctx); err != nil {
		return err
	}

	//create config watcher, the logger and logic pick up changes to the
	// config file (e.g. LOG_LEVEL) without a restart
	watcher := config.NewWatcher(logic, logger)
	if err := watcher.Configure(environ); err != nil {
		return err
	}
	if err := watcher.Open(ctx); err != nil {
		logger.Error(ctx, "error while opening config watcher: %s", err)
	}
	<-ctx.Done()
	wg.Wait()
	if err := watcher.Close(context.Background()); err != nil {
		logger.Error(context.Background(), "error while closing config watcher: %s", err)
	}
	if err := service.Close(context.Background()); err != nil {
		logger.Error(context.Background(), "error while closing service: %s", err)
	}
	return nil
}
