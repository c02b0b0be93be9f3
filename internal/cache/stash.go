package cache

import (
	"context"
	"fmt"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

type stashCache struct {
	logger utilities.Logger
	stash interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
}

// NewStash wraps a go-stash implementation (memory or redis) which must be
// provided as a parameter
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{
		logger: utilities.NewNopLogger(),
	}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

// the stash (e.g. a redis database) may hold other keys
func stashKey(id int64) string {
	return fmt.Sprintf("employee:%d", id)
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Initialize()
	}
	return nil
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	if c.Stasher == nil {
		return nil
	}
	return c.Stasher.Clear()
}

func (c *stashCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	if c.Stasher == nil {
		return nil, ErrEmployeeNotCached
	}
	employee := &data.Employee{}
	if err := c.Stasher.Read(stashKey(id), employee); err != nil {
		c.logger.Trace(ctx, "cache miss for employee %d: %s", id, err)
		return nil, ErrEmployeeNotCached
	}
	c.logger.Trace(ctx, "cache hit for employee: %d", id)
	return employee, nil
}

func (c *stashCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	if c.Stasher == nil {
		return nil
	}
	for _, employee := range employees {
		if _, err := c.Stasher.Write(stashKey(employee.Id), employee); err != nil {
			//KIM: a failed write only means a later miss
			c.logger.Error(ctx, "error while writing employee (%d): %s", employee.Id, err)
			continue
		}
		c.logger.Trace(ctx, "cached employee: %d", employee.Id)
	}
	return nil
}

func (c *stashCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	if c.Stasher == nil {
		return nil
	}
	for _, id := range ids {
		if err := c.Stasher.Delete(stashKey(id)); err != nil {
			c.logger.Trace(ctx, "unable to evict employee %d: %s", id, err)
			continue
		}
		c.logger.Trace(ctx, "evicted cached employee: %d", id)
	}
	return nil
}
