package storage

import (
	"context"
	"sync"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"
)

type memoryStorage struct {
	sync.RWMutex
	employees []*data.Employee
	config    struct {
		seed bool
	}
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Storage
} {
	m := &memoryStorage{
		Logger:    utilities.NewNopLogger(),
		employees: []*data.Employee{},
	}
	m.config.seed = true
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			m.Logger = p
		}
	}
	return m
}

// indexOf returns -1 if there's no employee with the given id
func (m *memoryStorage) indexOf(id int64) int {
	for i, employee := range m.employees {
		if employee.Id == id {
			return i
		}
	}
	return -1
}

func (m *memoryStorage) Configure(envs map[string]string) error {
	m.Lock()
	defer m.Unlock()

	m.config.seed = configureSeed(envs)
	return nil
}

func (m *memoryStorage) Open(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.employees = []*data.Employee{}
	if m.config.seed {
		m.employees = append(m.employees, data.SeedEmployees()...)
		m.Debug(ctx, "seeded %d employees", len(m.employees))
	}
	return nil
}

func (m *memoryStorage) Close(ctx context.Context) error {
	return nil
}

func (m *memoryStorage) Clear(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.employees = []*data.Employee{}
	return nil
}

func (m *memoryStorage) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	employees := make([]*data.Employee, 0, len(m.employees))
	for _, employee := range m.employees {
		employees = append(employees, employee.Copy())
	}
	return employees, nil
}

func (m *memoryStorage) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, data.NewErrorNotFound(id)
	}
	return m.employees[i].Copy(), nil
}

func (m *memoryStorage) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	m.Lock()
	defer m.Unlock()

	var maxId int64

	for _, e := range m.employees {
		if e.Id > maxId {
			maxId = e.Id
		}
	}
	employee.Id = maxId + 1
	m.employees = append(m.employees, employee.Copy())
	return employee.Copy(), nil
}

func (m *memoryStorage) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error) {
	m.Lock()
	defer m.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, data.NewErrorNotFound(id)
	}
	employeePartial.Normalize().Merge(m.employees[i])
	return m.employees[i].Copy(), nil
}

func (m *memoryStorage) EmployeeDelete(ctx context.Context, id int64) error {
	m.Lock()
	defer m.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return data.NewErrorNotFound(id)
	}
	m.employees = append(m.employees[:i], m.employees[i+1:]...)
	return nil
}
