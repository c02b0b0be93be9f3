package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/antonio-alexander/go-employees-api/internal/data"
)

const columnsEmployee string = "id, name, email, department, position, salary, status, hire_date"

func createTableQuery(hireDateType string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
		id BIGINT NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		department VARCHAR(255) NOT NULL DEFAULT '',
		position VARCHAR(255) NOT NULL DEFAULT '',
		salary DECIMAL(18,2) NOT NULL DEFAULT 0,
		status VARCHAR(64) NOT NULL DEFAULT '',
		hire_date %s NOT NULL
	);`, tableEmployees, hireDateType)
}

func employeeScan(scanFx func(...interface{}) error) (*data.Employee, error) {
	employee := new(data.Employee)
	if err := scanFx(
		&employee.Id,
		&employee.Name,
		&employee.Email,
		&employee.Department,
		&employee.Position,
		&employee.Salary,
		&employee.Status,
		&employee.HireDate,
	); err != nil {
		return nil, err
	}
	employee.HireDate = employee.HireDate.UTC()
	return employee, nil
}

func employeeInsert(ctx context.Context, tx *sql.Tx, employee *data.Employee) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
		tableEmployees, columnsEmployee)
	_, err := tx.ExecContext(ctx, query,
		employee.Id,
		employee.Name,
		employee.Email,
		employee.Department,
		employee.Position,
		employee.Salary,
		employee.Status,
		employee.HireDate.UTC(),
	)
	return err
}

// employeeUpdates returns the SET clauses (and their arguments) for the
// fields provided by a normalized partial
func employeeUpdates(employeePartial data.EmployeePartial) (string, []any) {
	var updates []string
	var args []any

	if employeePartial.Name != nil {
		args = append(args, *employeePartial.Name)
		updates = append(updates, "name = ?")
	}
	if employeePartial.Email != nil {
		args = append(args, *employeePartial.Email)
		updates = append(updates, "email = ?")
	}
	if employeePartial.Department != nil {
		args = append(args, *employeePartial.Department)
		updates = append(updates, "department = ?")
	}
	if employeePartial.Position != nil {
		args = append(args, *employeePartial.Position)
		updates = append(updates, "position = ?")
	}
	if employeePartial.Salary != nil {
		args = append(args, *employeePartial.Salary)
		updates = append(updates, "salary = ?")
	}
	if employeePartial.Status != nil {
		args = append(args, *employeePartial.Status)
		updates = append(updates, "status = ?")
	}
	return strings.Join(updates, ", "), args
}

func nextId(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64

	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) + 1 FROM %s;", tableEmployees)
	row := tx.QueryRowContext(ctx, query)
	if err := row.Scan(&id); err != nil {
		return -1, err
	}
	return id, nil
}
