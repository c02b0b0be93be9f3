package cache

import (
	"strconv"
	"time"
)

// inProgressConfig controls the read guard: when enabled, the first miss for
// an employee is told to read it (ErrEmployeeReadSet) and every other miss
// is told the read is already in progress (ErrEmployeeReadAlreadySet) until
// the employee is written, deleted or the guard expires
type inProgressConfig struct {
	enabled       bool
	ttl           time.Duration
	pruneInterval time.Duration
}

func (i *inProgressConfig) setDefaults() {
	i.ttl = 10 * time.Second
	i.pruneInterval = 10 * time.Second
}

func (i *inProgressConfig) configure(envs map[string]string) {
	if s, ok := envs["CACHE_ENABLE_IN_PROGRESS"]; ok {
		i.enabled, _ = strconv.ParseBool(s)
	}
	if s := envs["CACHE_SET_READ_TTL"]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			i.ttl = time.Duration(n) * time.Second
		}
	}
	if s := envs["CACHE_PRUNE_INTERVAL"]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			i.pruneInterval = time.Duration(n) * time.Second
		}
	}
}

// expired returns true if a guard set at setAt should be pruned
func (i *inProgressConfig) expired(setAt int64) bool {
	return time.Since(time.Unix(0, setAt)) > i.ttl
}
