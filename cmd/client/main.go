package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/client"
	"github.com/antonio-alexander/go-employees-api/internal/config"
	"github.com/antonio-alexander/go-employees-api/internal/data"

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

func printJson(item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(bytes))
	return nil
}

// employeePartial reads the request body from EMPLOYEE, e.g.
// EMPLOYEE='{"name":"Ann","email":"ann@company.com"}'
func employeePartial(envs map[string]string) (data.EmployeePartial, error) {
	var employeePartial data.EmployeePartial

	s := envs["EMPLOYEE"]
	if s == "" {
		return employeePartial, errors.New("EMPLOYEE not provided")
	}
	if err := json.Unmarshal([]byte(s), &employeePartial); err != nil {
		return employeePartial, errors.Wrap(err, "unable to parse EMPLOYEE")
	}
	return employeePartial, nil
}

func Main(args []string, envs map[string]string, osSignal chan (os.Signal)) error {
	fmt.Printf("client: go-employees-api v%s (%s) built from: %s\n",
		Version, GitCommit, GitBranch)

	//create cache, only redis is shared between client processes
	var parameters []any
	if envs["CACHE_TYPE"] == "redis" {
		cache := cache.NewRedis()
		if err := cache.Configure(envs); err != nil {
			return err
		}
		if err := cache.Open(context.Background()); err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(context.Background()); err != nil {
				fmt.Printf("error while closing cache: %s\n", err)
			}
		}()
		parameters = append(parameters, cache)
	}

	//create client
	client := client.NewClient(parameters...)
	if err := client.Configure(envs); err != nil {
		return err
	}
	if err := client.Open(context.Background()); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			fmt.Printf("error while closing client: %s\n", err)
		}
	}()

	// execute command, the command can be provided as an argument or
	// with COMMAND
	command := envs["COMMAND"]
	if len(args) > 0 {
		command = args[0]
	}
	ctx := internal.CtxWithCorrelationId(context.Background(), internal.GenerateId())
	id, _ := strconv.ParseInt(envs["EMPLOYEE_ID"], 10, 64)
	if len(args) > 1 {
		i, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return errors.Errorf("invalid employee id: %s", args[1])
		}
		id = i
	}
	switch command {
	default:
		return errors.Errorf("unsupported command: %s", command)
	case "employees_read":
		employees, err := client.EmployeesRead(ctx)
		if err != nil {
			return err
		}
		return printJson(employees)
	case "employee_read":
		employee, err := client.EmployeeRead(ctx, id)
		if err != nil {
			return err
		}
		return printJson(employee)
	case "employee_create":
		employeePartial, err := employeePartial(envs)
		if err != nil {
			return err
		}
		employee, err := client.EmployeeCreate(ctx, employeePartial)
		if err != nil {
			return err
		}
		return printJson(employee)
	case "employee_update":
		employeePartial, err := employeePartial(envs)
		if err != nil {
			return err
		}
		if err := client.EmployeeUpdate(ctx, id, employeePartial); err != nil {
			return err
		}
		fmt.Printf("updated employee: %d\n", id)
	case "employee_delete":
		if err := client.EmployeeDelete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("deleted employee: %d\n", id)
	case "cache_clear":
		return client.CacheClear(ctx)
	case "cache_counters_read":
		cacheCounters, err := client.CacheCountersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(cacheCounters)
	case "cache_counters_clear":
		return client.CacheCountersClear(ctx)
	case "timers_read":
		timers, err := client.TimersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(timers)
	case "timers_clear":
		return client.TimersClear(ctx)
	}
	return nil
}
