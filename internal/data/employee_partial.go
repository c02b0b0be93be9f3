package data

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// hireDateLayouts are the layouts a hire date is accepted in, a date without
// a zone is utc
var hireDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

type hireDate time.Time

func (h *hireDate) UnmarshalJSON(bytes []byte) error {
	var s string

	if err := json.Unmarshal(bytes, &s); err != nil {
		return errors.Errorf("invalid hire date: %s", bytes)
	}
	if s = strings.TrimSpace(s); s == "" {
		*h = hireDate{}
		return nil
	}
	for _, layout := range hireDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*h = hireDate(t)
			return nil
		}
	}
	return errors.Errorf("invalid hire date: %q", s)
}

// EmployeePartial is the candidate record decoded from a request body; nil
// fields were not provided by the client
type EmployeePartial struct {
	Id         *int64           `json:"id,omitempty"`
	Name       *string          `json:"name,omitempty"`
	Email      *string          `json:"email,omitempty"`
	Department *string          `json:"department,omitempty"`
	Position   *string          `json:"position,omitempty"`
	Salary     *decimal.Decimal `json:"salary,omitempty"`
	Status     *string          `json:"status,omitempty"`
	HireDate   *time.Time       `json:"hireDate,omitempty"`
}

// UnmarshalJSON accepts a hire date with or without a time and zone (e.g.
// 2020-01-15)
func (e *EmployeePartial) UnmarshalJSON(bytes []byte) error {
	type employeePartial EmployeePartial
	var partial struct {
		employeePartial
		HireDate *hireDate `json:"hireDate,omitempty"`
	}

	if err := json.Unmarshal(bytes, &partial); err != nil {
		return err
	}
	*e = EmployeePartial(partial.employeePartial)
	e.HireDate = (*time.Time)(partial.HireDate)
	return nil
}

func (e *EmployeePartial) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *EmployeePartial) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// Normalize returns a copy containing only the fields an update overwrites:
// blank strings and a non-positive salary are treated as not provided, the
// id and hire date are never updated
func (e EmployeePartial) Normalize() EmployeePartial {
	var normalized EmployeePartial

	if !isBlank(e.Name) {
		normalized.Name = e.Name
	}
	if !isBlank(e.Email) {
		normalized.Email = e.Email
	}
	if !isBlank(e.Department) {
		normalized.Department = e.Department
	}
	if !isBlank(e.Position) {
		normalized.Position = e.Position
	}
	if e.Salary != nil && e.Salary.IsPositive() {
		normalized.Salary = e.Salary
	}
	if !isBlank(e.Status) {
		normalized.Status = e.Status
	}
	return normalized
}

// Merge overwrites the fields of employee provided by the (normalized)
// partial
func (e EmployeePartial) Merge(employee *Employee) {
	if e.Name != nil {
		employee.Name = *e.Name
	}
	if e.Email != nil {
		employee.Email = *e.Email
	}
	if e.Department != nil {
		employee.Department = *e.Department
	}
	if e.Position != nil {
		employee.Position = *e.Position
	}
	if e.Salary != nil {
		employee.Salary = *e.Salary
	}
	if e.Status != nil {
		employee.Status = *e.Status
	}
}

// ToEmployee converts the candidate into a record applying the create
// defaults: hire date is now (utc) when absent or zero and status is
// Active when blank; the id is left for the store to assign
func (e EmployeePartial) ToEmployee(now time.Time) Employee {
	var employee Employee

	if e.Name != nil {
		employee.Name = *e.Name
	}
	if e.Email != nil {
		employee.Email = *e.Email
	}
	if e.Department != nil {
		employee.Department = *e.Department
	}
	if e.Position != nil {
		employee.Position = *e.Position
	}
	if e.Salary != nil {
		employee.Salary = *e.Salary
	}
	switch {
	default:
		employee.Status = *e.Status
	case isBlank(e.Status):
		employee.Status = StatusActive
	}
	switch {
	default:
		employee.HireDate = *e.HireDate
	case e.HireDate == nil, e.HireDate.IsZero():
		employee.HireDate = now.UTC()
	}
	return employee
}
