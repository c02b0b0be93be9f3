package data

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// salary is a currency amount, clients expect a json number rather than
	// the quoted string decimal produces by default
	decimal.MarshalJSONWithoutQuotes = true
}

const StatusActive string = "Active"

type Employee struct {
	Id         int64           `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Department string          `json:"department"`
	Position   string          `json:"position"`
	Salary     decimal.Decimal `json:"salary"`
	Status     string          `json:"status"` //Active, Inactive, On Leave
	HireDate   time.Time       `json:"hireDate"`
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

func (e *Employee) Copy() *Employee {
	employee := &Employee{}
	*employee = *e
	return employee
}
