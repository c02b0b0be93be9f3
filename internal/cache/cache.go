package cache

import (
	"context"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"

	"github.com/pkg/errors"
)

var (
	ErrEmployeeNotCached      = errors.New("employee not cached")
	ErrEmployeeReadSet        = errors.New("employee not cached, read set")
	ErrEmployeeReadAlreadySet = errors.New("employee not cached, read already set")
)

// Cache holds single employees keyed by id, it's never the source
// of truth: anything missing or evicted is re-read from storage.
//
// With CACHE_ENABLE_IN_PROGRESS, a miss returns ErrEmployeeReadSet to the
// first reader and ErrEmployeeReadAlreadySet to every reader after it until
// the employee is written or deleted; otherwise a miss is ErrEmployeeNotCached
type Cache interface {
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesWrite(ctx context.Context, employees ...*data.Employee) error
	EmployeesDelete(ctx context.Context, ids ...int64) error
}

// New creates the cache named by CACHE_TYPE, it returns nil (and no error)
// when CACHE_TYPE is empty; stash caches are configured before being wrapped
// and reconfigured when the returned cache is configured
func New(envs map[string]string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
}, error) {
	switch cacheType := envs["CACHE_TYPE"]; cacheType {
	default:
		return nil, errors.Errorf("unsupported cache type: %s", cacheType)
	case "":
		return nil, nil
	case "memory":
		return NewMemory(parameters...), nil
	case "redis":
		return NewRedis(parameters...), nil
	case "stash-memory":
		stash := memory.New()
		_ = stash.Configure(envs)
		return NewStash(append(parameters, stash)...), nil
	case "stash-redis":
		stash := redis.New()
		_ = stash.Configure(envs)
		return NewStash(append(parameters, stash)...), nil
	}
}
