package data_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name            string
		employeePartial data.EmployeePartial
		errCreate       error
		errUpdate       error
	}{
		{
			name:      "empty",
			errCreate: data.ErrNameRequired,
			errUpdate: data.ErrNameRequired,
		},
		{
			name:            "blank name",
			employeePartial: data.EmployeePartial{Name: ptr(" \t"), Email: ptr("a@x.com")},
			errCreate:       data.ErrNameRequired,
			errUpdate:       data.ErrNameRequired,
		},
		{
			name:            "missing email",
			employeePartial: data.EmployeePartial{Name: ptr("Ann")},
			errCreate:       data.ErrEmailRequired,
		},
		{
			name:            "blank email",
			employeePartial: data.EmployeePartial{Name: ptr("Ann"), Email: ptr("")},
			errCreate:       data.ErrEmailRequired,
		},
		{
			name:            "valid",
			employeePartial: data.EmployeePartial{Name: ptr("Ann"), Email: ptr("a@x.com")},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.errCreate, data.ValidateCreate(test.employeePartial))
			assert.Equal(t, test.errUpdate, data.ValidateUpdate(test.employeePartial))
		})
	}
}

func TestNormalizeMerge(t *testing.T) {
	hireDate := time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)
	employee := &data.Employee{
		Id:         1,
		Name:       "John Doe",
		Email:      "john.doe@company.com",
		Department: "Engineering",
		Position:   "Senior Software Engineer",
		Salary:     decimal.NewFromInt(120000),
		Status:     data.StatusActive,
		HireDate:   hireDate,
	}

	//blank, zero, id and hire date are ignored
	data.EmployeePartial{
		Id:         ptr(int64(7)),
		Name:       ptr("X"),
		Email:      ptr(""),
		Department: ptr("  "),
		Salary:     ptr(decimal.Zero),
		Status:     ptr(""),
		HireDate:   ptr(time.Now()),
	}.Normalize().Merge(employee)
	assert.Equal(t, int64(1), employee.Id)
	assert.Equal(t, "X", employee.Name)
	assert.Equal(t, "john.doe@company.com", employee.Email)
	assert.Equal(t, "Engineering", employee.Department)
	assert.True(t, decimal.NewFromInt(120000).Equal(employee.Salary))
	assert.Equal(t, data.StatusActive, employee.Status)
	assert.Equal(t, hireDate, employee.HireDate)

	//negative salaries are ignored too, positive overwrite
	data.EmployeePartial{Salary: ptr(decimal.NewFromInt(-1))}.Normalize().Merge(employee)
	assert.True(t, decimal.NewFromInt(120000).Equal(employee.Salary))
	data.EmployeePartial{
		Salary:   ptr(decimal.NewFromInt(50000)),
		Position: ptr("Staff Engineer"),
		Status:   ptr("On Leave"),
	}.Normalize().Merge(employee)
	assert.True(t, decimal.NewFromInt(50000).Equal(employee.Salary))
	assert.Equal(t, "Staff Engineer", employee.Position)
	assert.Equal(t, "On Leave", employee.Status)
}

func TestToEmployee(t *testing.T) {
	now := time.Date(2024, time.May, 1, 8, 30, 0, 0, time.FixedZone("EST", -5*60*60))

	employee := data.EmployeePartial{
		Id:    ptr(int64(99)),
		Name:  ptr("Ann"),
		Email: ptr("a@x.com"),
	}.ToEmployee(now)
	assert.Zero(t, employee.Id)
	assert.Equal(t, data.StatusActive, employee.Status)
	assert.True(t, employee.Salary.IsZero())
	assert.Equal(t, now.UTC(), employee.HireDate)

	hireDate := time.Date(2019, time.June, 20, 0, 0, 0, 0, time.UTC)
	employee = data.EmployeePartial{
		Name:     ptr("Ann"),
		Email:    ptr("a@x.com"),
		Status:   ptr("Inactive"),
		HireDate: ptr(hireDate),
	}.ToEmployee(now)
	assert.Equal(t, "Inactive", employee.Status)
	assert.Equal(t, hireDate, employee.HireDate)

	employee = data.EmployeePartial{HireDate: &time.Time{}, Status: ptr(" ")}.ToEmployee(now)
	assert.Equal(t, now.UTC(), employee.HireDate)
	assert.Equal(t, data.StatusActive, employee.Status)
}

func TestEmployeeJson(t *testing.T) {
	employee := data.SeedEmployees()[0]

	bytes, err := json.Marshal(employee)
	require.Nil(t, err)
	var raw map[string]any
	require.Nil(t, json.Unmarshal(bytes, &raw))
	assert.Equal(t, float64(1), raw["id"])
	assert.Equal(t, "John Doe", raw["name"])
	assert.Equal(t, float64(120000), raw["salary"])
	assert.Equal(t, "2020-01-15T00:00:00Z", raw["hireDate"])

	//field names are matched case insensitively
	var employeePartial data.EmployeePartial
	err = json.Unmarshal([]byte(`{"Name":"Ann","EMAIL":"a@x.com","salary":65000.5}`), &employeePartial)
	require.Nil(t, err)
	assert.Equal(t, "Ann", *employeePartial.Name)
	assert.Equal(t, "a@x.com", *employeePartial.Email)
	assert.True(t, decimal.RequireFromString("65000.5").Equal(*employeePartial.Salary))
	assert.Nil(t, employeePartial.Department)

	//binary round trip used by caches
	bytes, err = employee.MarshalBinary()
	require.Nil(t, err)
	employeeRead := &data.Employee{}
	require.Nil(t, employeeRead.UnmarshalBinary(bytes))
	assert.Equal(t, employee.Name, employeeRead.Name)
	assert.True(t, employee.Salary.Equal(employeeRead.Salary))
}

func TestEmployeePartialHireDate(t *testing.T) {
	for _, test := range []struct {
		name     string
		body     string
		hireDate *time.Time
		err      bool
	}{
		{
			name:     "date",
			body:     `{"Name":"Ann","HireDate":"2020-01-15"}`,
			hireDate: ptr(time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:     "date_time",
			body:     `{"hireDate":"2020-01-15T08:30:00"}`,
			hireDate: ptr(time.Date(2020, time.January, 15, 8, 30, 0, 0, time.UTC)),
		},
		{
			name:     "rfc3339",
			body:     `{"hireDate":"2020-01-15T08:30:00-05:00"}`,
			hireDate: ptr(time.Date(2020, time.January, 15, 13, 30, 0, 0, time.UTC)),
		},
		{
			name: "absent",
			body: `{"name":"Ann"}`,
		},
		{
			name: "null",
			body: `{"hireDate":null}`,
		},
		{
			name:     "empty",
			body:     `{"hireDate":""}`,
			hireDate: &time.Time{},
		},
		{
			name: "invalid",
			body: `{"hireDate":"15/01/2020"}`,
			err:  true,
		},
		{
			name: "not_a_string",
			body: `{"hireDate":20200115}`,
			err:  true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			var employeePartial data.EmployeePartial

			err := json.Unmarshal([]byte(test.body), &employeePartial)
			if test.err {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			if test.hireDate == nil {
				assert.Nil(t, employeePartial.HireDate)
				return
			}
			if assert.NotNil(t, employeePartial.HireDate) {
				assert.True(t, test.hireDate.Equal(*employeePartial.HireDate))
			}
		})
	}

	//other fields are decoded alongside the hire date
	var employeePartial data.EmployeePartial
	err := json.Unmarshal([]byte(`{"Name":"Ann","salary":10,"HireDate":"2020-01-15"}`), &employeePartial)
	require.Nil(t, err)
	assert.Equal(t, "Ann", *employeePartial.Name)
	assert.True(t, decimal.NewFromInt(10).Equal(*employeePartial.Salary))
	employee := employeePartial.ToEmployee(time.Now())
	assert.Equal(t, "2020-01-15T00:00:00Z", employee.HireDate.Format(time.RFC3339))

	//round trip through the binary encoding used by caches
	bytes, err := employeePartial.MarshalBinary()
	require.Nil(t, err)
	employeePartialRead := &data.EmployeePartial{}
	require.Nil(t, employeePartialRead.UnmarshalBinary(bytes))
	assert.True(t, employeePartial.HireDate.Equal(*employeePartialRead.HireDate))
}

func TestErrors(t *testing.T) {
	err := data.NewErrorNotFound(9999)
	assert.Equal(t, "Employee with ID 9999 not found", err.Error())
	assert.True(t, data.IsNotFound(err))
	assert.True(t, data.IsNotFound(errors.Wrap(err, "wrapped")))
	assert.Equal(t, data.ErrorKindInvalidInput, data.ErrorKindOf(data.ErrNameRequired))
	assert.Equal(t, data.ErrorKind(""), data.ErrorKindOf(errors.New("other")))

	bytes, err := json.Marshal(data.NewErrorInvalidInput("The value '%s' is not valid.", "abc"))
	require.Nil(t, err)
	assert.JSONEq(t, `{"message":"The value 'abc' is not valid."}`, string(bytes))
}

func TestSeedEmployees(t *testing.T) {
	employees := data.SeedEmployees()
	require.Len(t, employees, 3)
	for i, employee := range employees {
		assert.Equal(t, int64(i+1), employee.Id)
	}

	//seeds are fresh copies
	employees[0].Name = "changed"
	assert.Equal(t, "John Doe", data.SeedEmployees()[0].Name)
}
