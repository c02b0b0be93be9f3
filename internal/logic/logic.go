package logic

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/storage"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

var ErrMutateDisabled = errors.New("mutation disabled")

type Logic struct {
	sync.RWMutex
	storage.Storage
	cache   cache.Cache
	counter utilities.Counter
	config  struct {
		cacheEnabled       bool
		mutateDisabled     bool
		cacheRetryInterval time.Duration
		cacheMaxRetries    uint
	}
	versions struct {
		sync.Mutex
		ids map[int64]uint64
	}
	utilities.Logger
}

func NewLogic(parameters ...any) *Logic {
	l := &Logic{
		Logger:  utilities.NewNopLogger(),
		counter: utilities.NewCounter(),
	}
	l.config.cacheRetryInterval = 100 * time.Millisecond
	l.config.cacheMaxRetries = 10
	l.versions.ids = make(map[int64]uint64)
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case storage.Storage:
			l.Storage = v
		case cache.Cache:
			l.cache = v
		case utilities.Counter:
			l.counter = v
		case utilities.Logger:
			l.Logger = v
		}
	}
	return l
}

// CacheKey is the key hits and misses are counted against
func CacheKey(id int64) string {
	return fmt.Sprintf("employee_%d", id)
}

func (l *Logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.cacheEnabled && l.cache != nil
}

func (l *Logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.mutateDisabled
}

// version returns the current version of the cached employee, any write back
// of an employee read from storage must present the version it started with
func (l *Logic) version(id int64) uint64 {
	l.versions.Lock()
	defer l.versions.Unlock()

	return l.versions.ids[id]
}

// cacheWrite writes an employee read from storage back to the cache unless
// it was evicted since version was read
func (l *Logic) cacheWrite(ctx context.Context, version uint64, employee *data.Employee) {
	l.versions.Lock()
	defer l.versions.Unlock()

	if l.versions.ids[employee.Id] != version {
		l.Trace(ctx, "employee (%d) evicted while being read, not cached", employee.Id)
		return
	}
	if err := l.cache.EmployeesWrite(ctx, employee); err != nil {
		l.Error(ctx, "error while writing employee (%d) to cache: %s", employee.Id, err)
	}
}

func (l *Logic) cacheEvict(ctx context.Context, id int64) {
	if !l.cacheEnabled() {
		return
	}
	l.versions.Lock()
	defer l.versions.Unlock()

	l.versions.ids[id]++
	if err := l.cache.EmployeesDelete(ctx, id); err != nil {
		l.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

// cacheRead reads the employee from the cache, if another reader is already
// reading it from storage, it waits for that reader to write it; it returns
// an error if the employee should be read from storage
func (l *Logic) cacheRead(ctx context.Context, id int64) (*data.Employee, error) {
	l.RLock()
	retryInterval, maxRetries := l.config.cacheRetryInterval, l.config.cacheMaxRetries
	l.RUnlock()

	employee, err := l.cache.EmployeeRead(ctx, id)
	if !errors.Is(err, cache.ErrEmployeeReadAlreadySet) {
		return employee, err
	}
	return backoff.Retry(ctx, func() (*data.Employee, error) {
		employee, err := l.cache.EmployeeRead(ctx, id)
		switch {
		case err == nil:
			return employee, nil
		case errors.Is(err, cache.ErrEmployeeReadAlreadySet):
			l.Trace(ctx, "waiting for employee (%d) to be cached", id)
			return nil, err
		default:
			return nil, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(retryInterval)),
		backoff.WithMaxTries(maxRetries),
	)
}

func (l *Logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	if s := envs["CACHE_RETRY_INTERVAL"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			l.config.cacheRetryInterval = time.Duration(i) * time.Millisecond
		}
	}
	if s := envs["CACHE_MAX_RETRIES"]; s != "" {
		if i, err := strconv.ParseUint(s, 10, 32); err == nil && i > 0 {
			l.config.cacheMaxRetries = uint(i)
		}
	}
	return nil
}

func (l *Logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.Storage == nil {
		return errors.New("storage not provided")
	}
	//KIM: storage is re-seeded on open, anything cached before is stale
	if clearer, ok := l.cache.(internal.Clearer); ok {
		if err := clearer.Clear(ctx); err != nil {
			return errors.Wrap(err, "unable to clear cache")
		}
	}
	if l.config.cacheEnabled {
		if l.cache == nil {
			l.Error(ctx, "cache enabled, but no cache provided")
		} else {
			l.Info(ctx, "cache enabled")
		}
	}
	if l.config.mutateDisabled {
		l.Info(ctx, "mutation disabled")
	}
	return nil
}

func (l *Logic) Close(ctx context.Context) error {
	return nil
}

func (l *Logic) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	return l.Storage.EmployeesRead(ctx)
}

func (l *Logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	cacheEnabled := l.cacheEnabled()
	if cacheEnabled {
		employee, err := l.cacheRead(ctx, id)
		if err == nil {
			l.counter.IncrementHit(CacheKey(id))
			return employee, nil
		}
		l.counter.IncrementMiss(CacheKey(id))
		l.Trace(ctx, "error while reading employee (%d) from cache: %s", id, err)
	}
	version := l.version(id)
	employee, err := l.Storage.EmployeeRead(ctx, id)
	if err != nil {
		if cacheEnabled {
			//release the read so waiters go to storage
			if err := l.cache.EmployeesDelete(ctx, id); err != nil {
				l.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
			}
		}
		return nil, err
	}
	if cacheEnabled {
		l.cacheWrite(ctx, version, employee)
	}
	return employee, nil
}

func (l *Logic) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, ErrMutateDisabled
	}
	if err := data.ValidateCreate(employeePartial); err != nil {
		return nil, err
	}
	employee, err := l.Storage.EmployeeCreate(ctx, employeePartial.ToEmployee(time.Now()))
	if err != nil {
		return nil, err
	}
	l.Debug(ctx, "created employee: %d", employee.Id)
	return employee, nil
}

func (l *Logic) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, ErrMutateDisabled
	}
	//KIM: an unknown id is reported before an invalid body
	if _, err := l.Storage.EmployeeRead(ctx, id); err != nil {
		return nil, err
	}
	if err := data.ValidateUpdate(employeePartial); err != nil {
		return nil, err
	}
	employee, err := l.Storage.EmployeeUpdate(ctx, id, employeePartial)
	if err != nil {
		return nil, err
	}
	l.cacheEvict(ctx, id)
	l.Debug(ctx, "updated employee: %d", id)
	return employee, nil
}

func (l *Logic) EmployeeDelete(ctx context.Context, id int64) error {
	if l.mutateDisabled() {
		return ErrMutateDisabled
	}
	if err := l.Storage.EmployeeDelete(ctx, id); err != nil {
		return err
	}
	l.cacheEvict(ctx, id)
	l.Debug(ctx, "deleted employee: %d", id)
	return nil
}
