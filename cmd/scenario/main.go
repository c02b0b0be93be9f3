package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/client"
	"github.com/antonio-alexander/go-employees-api/internal/config"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/logic"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/pkg/errors"
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
	args := os.Args[1:]
	envs, err := config.Load(config.Environ())
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

type scenarioConfig struct {
	readInterval     time.Duration
	updateInterval   time.Duration
	duration         time.Duration
	employeesCreated int
}

// seconds reads a whole number of seconds from envs
func seconds(envs map[string]string, key string, defaultValue time.Duration) time.Duration {
	if i, err := strconv.Atoi(envs[key]); err == nil && i > 0 {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func configure(envs map[string]string) scenarioConfig {
	config := scenarioConfig{
		readInterval:     seconds(envs, "SCENARIO_READ_INTERVAL", time.Second),
		updateInterval:   seconds(envs, "SCENARIO_UPDATE_INTERVAL", 2*time.Second),
		duration:         seconds(envs, "SCENARIO_DURATION", 10*time.Second),
		employeesCreated: 10,
	}
	if i, err := strconv.Atoi(envs["SCENARIO_EMPLOYEES"]); err == nil && i > 0 {
		config.employeesCreated = i
	}
	return config
}

func randomEmployee() data.EmployeePartial {
	name := internal.GenerateId()[:14]
	email := internal.GenerateId()[:8] + "@company.com"
	department, position := "Engineering", "Software Engineer"
	return data.EmployeePartial{
		Name:       &name,
		Email:      &email,
		Department: &department,
		Position:   &position,
	}
}

// repeat executes fx every interval until stop is closed
func repeat(ctx context.Context, logger utilities.Logger, start, stop <-chan struct{},
	interval time.Duration, fx func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	<-start
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := fx(ctx); err != nil {
				logger.Error(ctx, "%s", err)
			}
		}
	}
}

// scenarioStampedingHerd has one client update an employee while the
// remaining clients read it, the cache hit/miss ratio shows how often reads
// fall through to storage after each update invalidates the employee
func scenarioStampedingHerd(ctx context.Context, config scenarioConfig, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_stampeding_herd"

	var wg sync.WaitGroup

	if len(clients) < 2 {
		return errors.New("at least two clients are required")
	}
	writer, readers := clients[0], clients[1:]
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	employee, err := writer.EmployeeCreate(ctx, randomEmployee())
	if err != nil {
		return err
	}
	defer func() {
		if err := writer.EmployeeDelete(ctx, employee.Id); err != nil {
			logger.Error(ctx, "error while deleting employee %d: %s", employee.Id, err)
			return
		}
		logger.Info(ctx, "deleted employee: %d", employee.Id)
	}()
	logger.Info(ctx, "created employee: %d", employee.Id)

	start, stop := make(chan struct{}), make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()

		repeat(ctx, logger, start, stop, config.updateInterval, func(ctx context.Context) error {
			return writer.EmployeeUpdate(ctx, employee.Id, randomEmployee())
		})
	}()
	for i, reader := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx := internal.CtxWithCorrelationId(ctx, fmt.Sprintf("%s_%d", correlationId, i+1))
			repeat(ctx, logger, start, stop, config.readInterval, func(ctx context.Context) error {
				_, err := reader.EmployeeRead(ctx, employee.Id)
				return err
			})
		}()
	}

	//start from an empty cache with no counts
	if err := writer.CacheClear(ctx); err != nil {
		return err
	}
	if err := writer.CacheCountersClear(ctx); err != nil {
		return err
	}
	close(start)
	select {
	case <-ctx.Done():
	case <-time.After(config.duration):
	}
	close(stop)
	wg.Wait()

	cacheCounters, err := writer.CacheCountersRead(ctx)
	if err != nil {
		return err
	}
	hits := cacheCounters.CounterHits[logic.CacheKey(employee.Id)]
	misses := cacheCounters.CounterMisses[logic.CacheKey(employee.Id)]
	if total := hits + misses; total > 0 {
		logger.Info(ctx, "cache hit ratio (%d/%d): %0.2f%%",
			hits, total, float64(hits)/float64(total)*100)
	}
	return nil
}

// scenarioCrud has every client concurrently create, update, read and delete
// its own employees; each read must reflect the update before it
func scenarioCrud(ctx context.Context, config scenarioConfig, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_crud"

	var wg sync.WaitGroup
	var completed int
	var mu sync.Mutex

	if len(clients) == 0 {
		return errors.New("at least one client is required")
	}
	crud := func(ctx context.Context, client client.Client, position string) error {
		employee, err := client.EmployeeCreate(ctx, randomEmployee())
		if err != nil {
			return err
		}
		if err := client.EmployeeUpdate(ctx, employee.Id, data.EmployeePartial{
			Name:     &employee.Name,
			Position: &position,
		}); err != nil {
			return err
		}
		employeeRead, err := client.EmployeeRead(ctx, employee.Id)
		if err != nil {
			return err
		}
		if employeeRead.Position != position {
			return errors.Errorf("employee %d position is %q, expected %q",
				employee.Id, employeeRead.Position, position)
		}
		return client.EmployeeDelete(ctx, employee.Id)
	}
	errs := make(chan error, len(clients))
	for i, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx := internal.CtxWithCorrelationId(ctx, fmt.Sprintf("%s_%d", correlationId, i))
			for j := range config.employeesCreated {
				if err := crud(ctx, c, fmt.Sprintf("Position %d.%d", i, j)); err != nil {
					errs <- err
					return
				}
				mu.Lock()
				completed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return err
	}
	logger.Info(ctx, "created, updated, read and deleted %d employees", completed)
	return nil
}

func Main(args []string, envs map[string]string, osSignal chan (os.Signal)) error {
	var clients []client.Client
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create logger
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)

	//print version info
	logger.Info(ctx, "scenarios: go-employees-api v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	nClients, _ := strconv.Atoi(envs["N_CLIENTS"])
	for range nClients {
		//create cache, each client has its own
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
					logger.Error(ctx, "error while closing cache: %s", err)
				}
			}()
		}

		//create client
		client := client.NewClient(cache, logger)
		if err := client.Configure(envs); err != nil {
			return err
		}
		if err := client.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Error(ctx, "error while closing client: %s", err)
			}
		}()
		clients = append(clients, client)
	}

	// execute scenario
	config := configure(envs)
	switch scenario := envs["SCENARIO"]; scenario {
	default:
		return errors.Errorf("unsupported scenario: %s", scenario)
	case "stampeding_herd":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioStampedingHerd(ctx, config, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	case "crud":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err := scenarioCrud(ctx, config, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	}
	cancel()
	wg.Wait()
	return nil
}
