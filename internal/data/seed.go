package data

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeedEmployees returns the records every store starts with
func SeedEmployees() []*Employee {
	return []*Employee{
		{
			Id:         1,
			Name:       "John Doe",
			Email:      "john.doe@company.com",
			Department: "Engineering",
			Position:   "Senior Software Engineer",
			Salary:     decimal.NewFromInt(120000),
			Status:     StatusActive,
			HireDate:   time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			Id:         2,
			Name:       "Jane Smith",
			Email:      "jane.smith@company.com",
			Department: "Product",
			Position:   "Product Manager",
			Salary:     decimal.NewFromInt(110000),
			Status:     StatusActive,
			HireDate:   time.Date(2019, time.June, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			Id:         3,
			Name:       "Bob Johnson",
			Email:      "bob.johnson@company.com",
			Department: "Sales",
			Position:   "Sales Executive",
			Salary:     decimal.NewFromInt(90000),
			Status:     StatusActive,
			HireDate:   time.Date(2021, time.March, 10, 0, 0, 0, 0, time.UTC),
		},
	}
}
