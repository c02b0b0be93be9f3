package storage_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envs = map[string]string{
	"STORAGE_SEED":                    "true",
	"DATABASE_PORT":                   "3306",
	"DATABASE_NAME":                   "employees",
	"DATABASE_USER":                   "mysql",
	"DATABASE_PASSWORD":               "mysql",
	"DATABASE_QUERY_TIMEOUT":          "10",
	"DATABASE_CONNECT_RETRIES":        "1",
	"DATABASE_CONNECT_RETRY_INTERVAL": "1",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type storageTest struct {
	storage interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
	}
	storage.Storage
}

func newStorageTest(storageType string) *storageTest {
	var s interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		storage.Storage
	}

	switch storageType {
	case "memory":
		s = storage.NewMemory()
	case "sqlite":
		s = storage.NewSqlite()
	case "mysql":
		s = storage.NewMySql()
	}
	return &storageTest{
		storage: s,
		Storage: s,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func assertEmployeeEqual(t *testing.T, expected, actual *data.Employee) {
	t.Helper()

	if !assert.NotNil(t, actual) {
		return
	}
	assert.Equal(t, expected.Id, actual.Id)
	assert.Equal(t, expected.Name, actual.Name)
	assert.Equal(t, expected.Email, actual.Email)
	assert.Equal(t, expected.Department, actual.Department)
	assert.Equal(t, expected.Position, actual.Position)
	assert.True(t, expected.Salary.Equal(actual.Salary), "salary %s != %s", expected.Salary, actual.Salary)
	assert.Equal(t, expected.Status, actual.Status)
	assert.True(t, expected.HireDate.Equal(actual.HireDate), "hire date %s != %s", expected.HireDate, actual.HireDate)
}

func employeeIds(employees []*data.Employee) []int64 {
	ids := make([]int64, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.Id)
	}
	return ids
}

func (s *storageTest) TestSeed(t *testing.T) {
	ctx := context.TODO()

	employees, err := s.EmployeesRead(ctx)
	require.Nil(t, err)
	require.Len(t, employees, 3)
	for i, seed := range data.SeedEmployees() {
		assertEmployeeEqual(t, seed, employees[i])
	}
}

func (s *storageTest) TestCrud(t *testing.T) {
	ctx := context.TODO()

	// read employee that was never assigned
	employee, err := s.EmployeeRead(ctx, 9999)
	assert.True(t, data.IsNotFound(err))
	assert.Nil(t, employee)

	// create employee
	hireDate := time.Date(2022, time.May, 1, 12, 0, 0, 0, time.UTC)
	employeeCreated, err := s.EmployeeCreate(ctx, data.Employee{
		Id:         42,
		Name:       "Ann",
		Email:      "a@x.com",
		Department: "Finance",
		Position:   "Analyst",
		Salary:     decimal.RequireFromString("65000.50"),
		Status:     data.StatusActive,
		HireDate:   hireDate,
	})
	require.Nil(t, err)
	require.NotNil(t, employeeCreated)
	assert.Equal(t, int64(4), employeeCreated.Id)
	id := employeeCreated.Id

	// read employee
	employeeRead, err := s.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assertEmployeeEqual(t, employeeCreated, employeeRead)

	// update only the name
	employeeUpdated, err := s.EmployeeUpdate(ctx, id, data.EmployeePartial{
		Name: ptr("X"),
	})
	assert.Nil(t, err)
	expected := employeeCreated.Copy()
	expected.Name = "X"
	assertEmployeeEqual(t, expected, employeeUpdated)

	// update with blank values and zero salary
	employeeUpdated, err = s.EmployeeUpdate(ctx, id, data.EmployeePartial{
		Id:         ptr(int64(7)),
		Name:       ptr("X"),
		Email:      ptr(" "),
		Department: ptr(""),
		Salary:     ptr(decimal.Zero),
		HireDate:   ptr(time.Now()),
	})
	assert.Nil(t, err)
	assertEmployeeEqual(t, expected, employeeUpdated)

	// update salary
	employeeUpdated, err = s.EmployeeUpdate(ctx, id, data.EmployeePartial{
		Name:   ptr("X"),
		Salary: ptr(decimal.NewFromInt(50000)),
		Status: ptr("On Leave"),
	})
	assert.Nil(t, err)
	expected.Salary = decimal.NewFromInt(50000)
	expected.Status = "On Leave"
	assertEmployeeEqual(t, expected, employeeUpdated)

	// update employee that doesn't exist
	_, err = s.EmployeeUpdate(ctx, 9999, data.EmployeePartial{Name: ptr("X")})
	assert.True(t, data.IsNotFound(err))

	// delete seeded employee
	err = s.EmployeeDelete(ctx, 2)
	assert.Nil(t, err)
	employees, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []int64{1, 3, 4}, employeeIds(employees))
	_, err = s.EmployeeRead(ctx, 2)
	assert.True(t, data.IsNotFound(err))

	// delete employee again
	err = s.EmployeeDelete(ctx, 2)
	assert.True(t, data.IsNotFound(err))

	// delete the highest id, the next create re-uses it
	err = s.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	employeeCreated, err = s.EmployeeCreate(ctx, data.Employee{Name: "Bo", Email: "b@x.com"})
	assert.Nil(t, err)
	assert.Equal(t, int64(4), employeeCreated.Id)
}

func (s *storageTest) TestEmpty(t *testing.T) {
	ctx := context.TODO()

	err := s.storage.Clear(ctx)
	require.Nil(t, err)

	// list all on an empty store
	employees, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.NotNil(t, employees)
	assert.Empty(t, employees)

	// first id on an empty store
	employeeCreated, err := s.EmployeeCreate(ctx, data.Employee{Name: "Ann", Email: "a@x.com"})
	assert.Nil(t, err)
	assert.Equal(t, int64(1), employeeCreated.Id)
}

func testStorage(t *testing.T, storageType string, envs map[string]string) {
	s := newStorageTest(storageType)

	ctx := context.TODO()
	err := s.storage.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure storage")
	}
	err = s.storage.Open(ctx)
	if storageType == "mysql" && err != nil {
		t.Skipf("mysql unavailable: %s", err)
	}
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open storage")
	}
	defer func() {
		if err := s.storage.Close(ctx); err != nil {
			t.Logf("error while closing storage: %s", err)
		}
	}()
	t.Run("Seed", s.TestSeed)
	t.Run("Crud", s.TestCrud)
	t.Run("Empty", s.TestEmpty)
}

func TestStorageMemory(t *testing.T) {
	testStorage(t, "memory", envs)
}

func TestStorageSqlite(t *testing.T) {
	envs := map[string]string{
		"SQLITE_DSN": "file:" + internal.GenerateId() + "?mode=memory&cache=shared",
	}
	testStorage(t, "sqlite", envs)
}

func TestStorageMySql(t *testing.T) {
	if envs["DATABASE_HOST"] == "" {
		t.Skip("DATABASE_HOST not set")
	}
	testStorage(t, "mysql", envs)
}

func TestNew(t *testing.T) {
	for _, storageType := range []string{"", "memory", "sqlite", "mysql"} {
		s, err := storage.New(map[string]string{"STORAGE_TYPE": storageType})
		assert.Nil(t, err)
		assert.NotNil(t, s)
	}
	_, err := storage.New(map[string]string{"STORAGE_TYPE": "postgres"})
	assert.NotNil(t, err)
}
