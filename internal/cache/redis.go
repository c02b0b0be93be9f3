package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	hashKeyEmployees           string = "employees"
	hashKeyEmployeesInProgress string = "employees_in_progress"
)

type redisCache struct {
	sync.RWMutex
	sync.WaitGroup
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
	inProgress  inProgressConfig
	config      struct {
		address              string
		port                 string
		password             string
		database             int
		timeout              time.Duration
		connectRetries       uint
		connectRetryInterval time.Duration
	}
	utilities.Logger
}

func NewRedis(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &redisCache{
		Logger: utilities.NewNopLogger(),
	}
	c.config.address = "localhost"
	c.config.port = "6379"
	c.config.timeout = 10 * time.Second
	c.config.connectRetries = 5
	c.config.connectRetryInterval = time.Second
	c.inProgress.setDefaults()
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *redisCache) client() (*redis.Client, error) {
	c.RLock()
	defer c.RUnlock()

	if c.redisClient == nil {
		return nil, errors.New("redis cache not opened")
	}
	return c.redisClient, nil
}

func (c *redisCache) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if redisAddress, ok := envs["REDIS_ADDRESS"]; ok && redisAddress != "" {
		c.config.address = redisAddress
	}
	if redisPort, ok := envs["REDIS_PORT"]; ok && redisPort != "" {
		c.config.port = redisPort
	}
	if redisPassword, ok := envs["REDIS_PASSWORD"]; ok {
		c.config.password = redisPassword
	}
	if redisDatabase, ok := envs["REDIS_DATABASE"]; ok {
		i, _ := strconv.ParseInt(redisDatabase, 10, 64)
		c.config.database = int(i)
	}
	if redisTimeout, ok := envs["REDIS_TIMEOUT"]; ok {
		if i, _ := strconv.ParseInt(redisTimeout, 10, 64); i > 0 {
			c.config.timeout = time.Duration(i) * time.Second
		}
	}
	if v := envs["REDIS_CONNECT_RETRIES"]; v != "" {
		if i, err := strconv.ParseUint(v, 10, 32); err == nil && i > 0 {
			c.config.connectRetries = uint(i)
		}
	}
	if v := envs["REDIS_CONNECT_RETRY_INTERVAL"]; v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.config.connectRetryInterval = time.Duration(i) * time.Second
		}
	}
	c.inProgress.configure(envs)
	return nil
}

func (c *redisCache) launchPrune(redisClient *redis.Client) {
	started := make(chan struct{})
	c.Add(1)
	go func() {
		defer c.Done()

		pruneFx := func() {
			ctx, cancel := context.WithTimeout(c.ctx, c.config.timeout)
			defer cancel()

			values, err := redisClient.HGetAll(ctx, hashKeyEmployeesInProgress).Result()
			if err != nil {
				c.Error(ctx, "error while reading reads in progress: %s", err)
				return
			}
			var fields []string
			for field, value := range values {
				setAt, _ := strconv.ParseInt(value, 10, 64)
				if c.inProgress.expired(setAt) {
					fields = append(fields, field)
				}
			}
			if len(fields) == 0 {
				return
			}
			if err := redisClient.HDel(ctx, hashKeyEmployeesInProgress, fields...).Err(); err != nil {
				c.Error(ctx, "error while pruning reads in progress: %s", err)
				return
			}
			c.Trace(ctx, "pruned reads in progress for employees: %v", fields)
		}
		tPrune := time.NewTicker(c.inProgress.pruneInterval)
		defer tPrune.Stop()
		close(started)
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-tPrune.C:
				pruneFx()
			}
		}
	}()
	<-started
}

func (c *redisCache) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.config.address, c.config.port),
		Password: c.config.password,
		DB:       c.config.database,
	})
	if _, err := backoff.Retry(ctx, func() (string, error) {
		ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
		defer cancel()
		pong, err := redisClient.Ping(ctx).Result()
		if err != nil {
			c.Debug(ctx, "unable to ping redis: %s", err)
		}
		return pong, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.config.connectRetryInterval)),
		backoff.WithMaxTries(c.config.connectRetries),
	); err != nil {
		_ = redisClient.Close()
		return errors.Wrap(err, "unable to connect to redis")
	}
	c.redisClient = redisClient
	if c.inProgress.enabled && c.cancel == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
		c.launchPrune(redisClient)
	}
	return nil
}

func (c *redisCache) Close(ctx context.Context) error {
	c.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.Unlock()

	if cancel != nil {
		cancel()
		c.Wait()
	}

	c.Lock()
	defer c.Unlock()

	if c.redisClient == nil {
		return nil
	}
	if err := c.redisClient.Close(); err != nil {
		c.Error(ctx, "error while shutting down redis client: %s", err)
	}
	c.redisClient = nil
	return nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	redisClient, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if _, err := redisClient.Del(ctx, hashKeyEmployees, hashKeyEmployeesInProgress).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	redisClient, err := c.client()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	value, err := redisClient.HGet(ctx, hashKeyEmployees, fmt.Sprint(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, c.setRead(ctx, redisClient, id)
		}
		return nil, err
	}
	employee := &data.Employee{}
	if err := employee.UnmarshalBinary([]byte(value)); err != nil {
		return nil, err
	}
	return employee, nil
}

// setRead marks the employee as being read if no one else has; an expired
// mark is taken over as if it wasn't there
func (c *redisCache) setRead(ctx context.Context, redisClient *redis.Client, id int64) error {
	c.RLock()
	enabled := c.inProgress.enabled
	c.RUnlock()

	if !enabled {
		return ErrEmployeeNotCached
	}
	field, now := fmt.Sprint(id), time.Now().UnixNano()
	set, err := redisClient.HSetNX(ctx, hashKeyEmployeesInProgress, field, now).Result()
	if err != nil {
		return err
	}
	if set {
		return ErrEmployeeReadSet
	}
	value, err := redisClient.HGet(ctx, hashKeyEmployeesInProgress, field).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrEmployeeNotCached
	case err != nil:
		return err
	}
	if setAt, _ := strconv.ParseInt(value, 10, 64); !c.inProgress.expired(setAt) {
		return ErrEmployeeReadAlreadySet
	}
	if err := redisClient.HSet(ctx, hashKeyEmployeesInProgress, field, now).Err(); err != nil {
		return err
	}
	return ErrEmployeeReadSet
}

func (c *redisCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	redisClient, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	values := make([]any, 0, 2*len(employees))
	fields := make([]string, 0, len(employees))
	for _, employee := range employees {
		bytes, err := employee.MarshalBinary()
		if err != nil {
			return err
		}
		values = append(values, fmt.Sprint(employee.Id), string(bytes))
		fields = append(fields, fmt.Sprint(employee.Id))
	}
	if _, err := redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKeyEmployees, values...)
		pipe.HDel(ctx, hashKeyEmployeesInProgress, fields...)
		return nil
	}); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	var fields []string

	if len(ids) == 0 {
		return nil
	}
	redisClient, err := c.client()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fields = append(fields, fmt.Sprint(id))
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout)
	defer cancel()
	if _, err := redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, hashKeyEmployees, fields...)
		pipe.HDel(ctx, hashKeyEmployeesInProgress, fields...)
		return nil
	}); err != nil {
		return err
	}
	return nil
}
