package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" //import for driver support
	"github.com/pkg/errors"
)

const (
	driverMySql  string = "mysql"
	driverSqlite string = "sqlite3"

	tableEmployees string = "employees"

	defaultSqliteDataSourceName string = "file:employees?mode=memory&cache=shared"
)

type sqlStorage struct {
	sync.RWMutex
	driver string
	config struct {
		Hostname             string
		Port                 string
		Username             string
		Password             string
		Database             string
		DataSourceName       string
		ConnectTimeout       time.Duration
		QueryTimeout         time.Duration
		ConnectRetries       uint
		ConnectRetryInterval time.Duration
		Seed                 bool
	}
	*sql.DB
	utilities.Logger
	opened bool
}

func newSql(driver string, parameters ...any) *sqlStorage {
	s := &sqlStorage{
		driver: driver,
		Logger: utilities.NewNopLogger(),
	}
	s.config.ConnectTimeout = 10 * time.Second
	s.config.ConnectRetries = 5
	s.config.ConnectRetryInterval = time.Second
	s.config.Seed = true
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			s.Logger = v
		}
	}
	return s
}

// NewMySql stores employees in a mysql table; the table is recreated when
// opened so nothing survives a restart
func NewMySql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Storage
} {
	return newSql(driverMySql, parameters...)
}

// NewSqlite stores employees in sqlite, by default an in-memory database
func NewSqlite(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Storage
} {
	return newSql(driverSqlite, parameters...)
}

func (s *sqlStorage) dataSourceName() string {
	switch s.driver {
	default:
		if s.config.DataSourceName == "" {
			return defaultSqliteDataSourceName
		}
		return s.config.DataSourceName
	case driverMySql:
		config := mysql.NewConfig()
		config.User = s.config.Username
		config.Passwd = s.config.Password
		config.Net = "tcp"
		config.Addr = net.JoinHostPort(s.config.Hostname, s.config.Port)
		config.DBName = s.config.Database
		config.ParseTime = true
		config.Loc = time.UTC
		config.Timeout = s.config.ConnectTimeout
		return config.FormatDSN()
	}
}

func (s *sqlStorage) hireDateType() string {
	if s.driver == driverMySql {
		return "DATETIME(6)"
	}
	return "DATETIME"
}

func (s *sqlStorage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

func (s *sqlStorage) ping(ctx context.Context, db *sql.DB) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := db.PingContext(ctx); err != nil {
			s.Debug(ctx, "unable to ping %s: %s", s.driver, err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.config.ConnectRetryInterval)),
		backoff.WithMaxTries(s.config.ConnectRetries),
	)
	return err
}

func (s *sqlStorage) createTable(ctx context.Context) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", tableEmployees)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createTableQuery(s.hireDateType())); err != nil {
		return err
	}
	if s.config.Seed {
		for _, employee := range data.SeedEmployees() {
			if err := employeeInsert(ctx, tx, employee); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *sqlStorage) employeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?;", columnsEmployee, tableEmployees)
	row := s.QueryRowContext(ctx, query, id)
	employee, err := employeeScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.NewErrorNotFound(id)
		}
		return nil, err
	}
	return employee, nil
}

func (s *sqlStorage) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		s.config.Password = password
	}
	if dataSourceName := envs["SQLITE_DSN"]; dataSourceName != "" {
		s.config.DataSourceName = dataSourceName
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if v := envs["DATABASE_CONNECT_RETRIES"]; v != "" {
		if i, err := strconv.ParseUint(v, 10, 32); err == nil && i > 0 {
			s.config.ConnectRetries = uint(i)
		}
	}
	if v := envs["DATABASE_CONNECT_RETRY_INTERVAL"]; v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			s.config.ConnectRetryInterval = time.Duration(i) * time.Second
		}
	}
	s.config.Seed = configureSeed(envs)
	return nil
}

func (s *sqlStorage) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	db, err := sql.Open(s.driver, s.dataSourceName())
	if err != nil {
		return err
	}
	if s.driver == driverSqlite {
		//KIM: an in-memory database only lives as long as one of its
		// connections, a single connection also avoids locking errors
		db.SetMaxOpenConns(1)
	}
	if err := s.ping(ctx, db); err != nil {
		_ = db.Close()
		return errors.Wrapf(err, "unable to connect to %s", s.driver)
	}
	s.DB = db
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "unable to create employees table")
	}
	s.opened = true
	s.Debug(ctx, "opened %s storage", s.driver)
	return nil
}

func (s *sqlStorage) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing %s: %s", s.driver, err)
	}
	s.opened = false
	return nil
}

func (s *sqlStorage) Clear(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s;", tableEmployees))
	return err
}

func (s *sqlStorage) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	s.RLock()
	defer s.RUnlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	//KIM: ids are always max+1 so ordering by id is insertion order
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id;", columnsEmployee, tableEmployees)
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	employees := []*data.Employee{}
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *sqlStorage) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	s.RLock()
	defer s.RUnlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.employeeRead(ctx, id)
}

func (s *sqlStorage) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if employee.Id, err = nextId(ctx, tx); err != nil {
		return nil, err
	}
	if err := employeeInsert(ctx, tx, &employee); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.employeeRead(ctx, employee.Id)
}

func (s *sqlStorage) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error) {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	//KIM: mysql reports rows changed rather than rows matched, so existence
	// is checked with a read instead of RowsAffected
	employee, err := s.employeeRead(ctx, id)
	if err != nil {
		return nil, err
	}
	updates, args := employeeUpdates(employeePartial.Normalize())
	if updates == "" {
		return employee, nil
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?;", tableEmployees, updates)
	args = append(args, id)
	if _, err := s.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return s.employeeRead(ctx, id)
}

func (s *sqlStorage) EmployeeDelete(ctx context.Context, id int64) error {
	s.Lock()
	defer s.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?;", tableEmployees)
	result, err := s.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return data.NewErrorNotFound(id)
	}
	return nil
}
