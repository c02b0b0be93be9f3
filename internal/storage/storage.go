package storage

import (
	"context"
	"strconv"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/pkg/errors"
)

// Storage owns the ordered collection of employees; every implementation
// serializes its operations behind a single lock and hands out copies
type Storage interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
}

func configureSeed(envs map[string]string) bool {
	seed := true
	if s, ok := envs["STORAGE_SEED"]; ok && s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			seed = b
		}
	}
	return seed
}

// New creates the storage named by STORAGE_TYPE (memory when empty)
func New(envs map[string]string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Storage
}, error) {
	switch storageType := envs["STORAGE_TYPE"]; storageType {
	default:
		return nil, errors.Errorf("unsupported storage type: %s", storageType)
	case "", "memory":
		return NewMemory(parameters...), nil
	case "mysql":
		return NewMySql(parameters...), nil
	case "sqlite":
		return NewSqlite(parameters...), nil
	}
}
