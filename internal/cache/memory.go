package cache

import (
	"context"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"
)

type memoryCache struct {
	sync.RWMutex
	sync.WaitGroup
	employees  map[int64]*data.Employee //map[id]employee
	inProgress map[int64]int64          //map[id]unix nano
	config     inProgressConfig
	ctx        context.Context
	cancel     context.CancelFunc
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		Logger:     utilities.NewNopLogger(),
		employees:  make(map[int64]*data.Employee),
		inProgress: make(map[int64]int64),
	}
	c.config.setDefaults()
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) launchPrune() {
	started := make(chan struct{})
	c.Add(1)
	go func() {
		defer c.Done()

		pruneFx := func() {
			c.Lock()
			defer c.Unlock()

			for id, setAt := range c.inProgress {
				if c.config.expired(setAt) {
					delete(c.inProgress, id)
					c.Trace(c.ctx, "pruned read in progress for employee: %d", id)
				}
			}
		}
		tPrune := time.NewTicker(c.config.pruneInterval)
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

func (c *memoryCache) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	c.config.configure(envs)
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*data.Employee)
	c.inProgress = make(map[int64]int64)
	if c.config.enabled && c.cancel == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
		c.launchPrune()
	}
	return nil
}

func (c *memoryCache) Close(ctx context.Context) error {
	c.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.Unlock()

	if cancel != nil {
		cancel()
		c.Wait()
	}
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*data.Employee)
	c.inProgress = make(map[int64]int64)
	c.Trace(ctx, "cache cleared")
	return nil
}

func (c *memoryCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	c.Lock()
	defer c.Unlock()

	employee, ok := c.employees[id]
	if ok {
		return employee.Copy(), nil
	}
	if !c.config.enabled {
		return nil, ErrEmployeeNotCached
	}
	if setAt, ok := c.inProgress[id]; ok && !c.config.expired(setAt) {
		return nil, ErrEmployeeReadAlreadySet
	}
	c.inProgress[id] = time.Now().UnixNano()
	return nil, ErrEmployeeReadSet
}

func (c *memoryCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	for _, employee := range employees {
		c.employees[employee.Id] = employee.Copy()
		delete(c.inProgress, employee.Id)
		c.Trace(ctx, "cached employee: %d", employee.Id)
	}
	return nil
}

func (c *memoryCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.Lock()
	defer c.Unlock()

	for _, id := range ids {
		delete(c.employees, id)
		delete(c.inProgress, id)
	}
	return nil
}
