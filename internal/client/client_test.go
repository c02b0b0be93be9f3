package client_test

import (
	"context"
	"net"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/client"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/logic"
	"github.com/antonio-alexander/go-employees-api/internal/service"
	"github.com/antonio-alexander/go-employees-api/internal/storage"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envs = map[string]string{
	//service
	"LOGIC_CACHE_ENABLED":    "true",
	"SERVICE_TIMERS_ENABLED": "true",

	//client
	"CLIENT_PROTOCOL":      "http",
	"CLIENT_TIMEOUT":       "10",
	"SSL_CA_FILE":          "",
	"SSL_KEY_FILE":         "",
	"SSL_CRT_FILE":         "",
	"CLIENT_CACHE_ENABLED": "true",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type clientTest struct {
	storage interface {
		internal.Configurer
		internal.Opener
	}
	logic interface {
		internal.Configurer
		internal.Opener
	}
	service interface {
		internal.Configurer
		internal.Opener
	}
	server *httptest.Server
	cache  interface {
		internal.Opener
		internal.Configurer
		internal.Clearer
		cache.Cache
	}
	client interface {
		internal.Opener
		internal.Configurer
	}
	client.Client
}

func newClientTest() *clientTest {
	logger := utilities.NewNopLogger()
	storage := storage.NewMemory(logger)
	serviceCache := cache.NewMemory(logger)
	counter := utilities.NewCounter()
	logic := logic.NewLogic(storage, serviceCache, logger, counter)
	service := service.NewService(logic, serviceCache, logger, counter)
	c := cache.NewMemory(logger)
	client := client.NewClient(c, logger)
	return &clientTest{
		storage: storage,
		logic:   logic,
		service: service,
		server:  httptest.NewUnstartedServer(service),
		cache:   c,
		client:  client,
		Client:  client,
	}
}

func (c *clientTest) Configure(envs map[string]string) error {
	if err := c.storage.Configure(envs); err != nil {
		return err
	}
	if err := c.logic.Configure(envs); err != nil {
		return err
	}
	if err := c.service.Configure(envs); err != nil {
		return err
	}
	if err := c.cache.Configure(envs); err != nil {
		return err
	}
	return c.client.Configure(envs)
}

func (c *clientTest) Open(ctx context.Context) error {
	if err := c.storage.Open(ctx); err != nil {
		return err
	}
	if err := c.logic.Open(ctx); err != nil {
		return err
	}
	c.server.Start()
	u, err := url.Parse(c.server.URL)
	if err != nil {
		return err
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return err
	}
	if err := c.client.Configure(map[string]string{
		"CLIENT_ADDRESS": host,
		"CLIENT_PORT":    port,
	}); err != nil {
		return err
	}
	if err := c.cache.Open(ctx); err != nil {
		return err
	}
	return c.client.Open(ctx)
}

func (c *clientTest) Close(ctx context.Context) error {
	if err := c.client.Close(ctx); err != nil {
		return err
	}
	if err := c.cache.Close(ctx); err != nil {
		return err
	}
	c.server.Close()
	if err := c.logic.Close(ctx); err != nil {
		return err
	}
	return c.storage.Close(ctx)
}

func ptr[T any](v T) *T {
	return &v
}

func (c *clientTest) TestClient(t *testing.T) {
	ctx := internal.CtxWithCorrelationId(context.TODO(), internal.GenerateId())

	//read seeded employees
	employees, err := c.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Len(t, employees, 3)

	// create employee
	name := internal.GenerateId()[:14]
	employeeCreated, err := c.EmployeeCreate(ctx, data.EmployeePartial{
		Name:       ptr(name),
		Email:      ptr(name + "@company.com"),
		Department: ptr("Engineering"),
		Salary:     ptr(decimal.RequireFromString("85000.25")),
	})
	require.Nil(t, err)
	require.NotNil(t, employeeCreated)
	assert.Equal(t, int64(4), employeeCreated.Id)
	assert.Equal(t, data.StatusActive, employeeCreated.Status)
	assert.True(t, decimal.RequireFromString("85000.25").Equal(employeeCreated.Salary))
	id := employeeCreated.Id

	// validate that employee not in cache
	employeeCached, err := c.cache.EmployeeRead(ctx, id)
	assert.NotNil(t, err)
	assert.Nil(t, employeeCached)

	// read employee
	employeeRead, err := c.EmployeeRead(ctx, id)
	require.Nil(t, err)
	assert.Equal(t, employeeCreated.Name, employeeRead.Name)
	assert.True(t, employeeCreated.HireDate.Equal(employeeRead.HireDate))

	// validate that employee in cache
	employeeCached, err = c.cache.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.NotNil(t, employeeCached)

	// update employee
	updatedName := internal.GenerateId()[:14]
	err = c.EmployeeUpdate(ctx, id, data.EmployeePartial{Name: ptr(updatedName)})
	assert.Nil(t, err)

	// validate that employee not in cache
	employeeCached, err = c.cache.EmployeeRead(ctx, id)
	assert.NotNil(t, err)
	assert.Nil(t, employeeCached)

	// read employee
	employeeRead, err = c.EmployeeRead(ctx, id)
	require.Nil(t, err)
	assert.Equal(t, updatedName, employeeRead.Name)
	assert.Equal(t, employeeCreated.Email, employeeRead.Email)

	// delete employee
	err = c.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	employeeCached, err = c.cache.EmployeeRead(ctx, id)
	assert.NotNil(t, err)
	assert.Nil(t, employeeCached)
	employees, err = c.EmployeesRead(ctx)
	require.Nil(t, err)
	assert.Len(t, employees, 3)
}

func (c *clientTest) TestErrors(t *testing.T) {
	var e *data.Error

	ctx := context.TODO()

	_, err := c.EmployeeRead(ctx, 9999)
	require.NotNil(t, err)
	assert.True(t, errors.As(err, &e))
	assert.True(t, data.IsNotFound(err))
	assert.Equal(t, "Employee with ID 9999 not found", err.Error())

	_, err = c.EmployeeCreate(ctx, data.EmployeePartial{Name: ptr("Ann")})
	assert.Equal(t, data.ErrorKindInvalidInput, data.ErrorKindOf(err))
	assert.Equal(t, data.ErrEmailRequired.Message, err.Error())

	err = c.EmployeeUpdate(ctx, 9999, data.EmployeePartial{})
	assert.True(t, data.IsNotFound(err))

	err = c.EmployeeDelete(ctx, 9999)
	assert.True(t, data.IsNotFound(err))
}

func (c *clientTest) TestDiagnostics(t *testing.T) {
	ctx := context.TODO()

	err := c.CacheClear(ctx)
	assert.Nil(t, err)
	err = c.CacheCountersClear(ctx)
	assert.Nil(t, err)
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)

	//the client cache doesn't hide the first read from the service
	_, err = c.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	cacheCounters, err := c.CacheCountersRead(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 1, cacheCounters.CounterMisses[logic.CacheKey(1)])

	timers, err := c.TimersRead(ctx)
	assert.Nil(t, err)
	assert.Contains(t, timers.Totals, data.OperationGetEmployeeById)
	err = c.TimersClear(ctx)
	assert.Nil(t, err)
	timers, err = c.TimersRead(ctx)
	assert.Nil(t, err)
	assert.Empty(t, timers.Totals)
}

func TestClient(t *testing.T) {
	c := newClientTest()

	ctx := context.TODO()
	err := c.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure testClient")
	}
	err = c.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open testClient")
	}
	defer func() {
		if err := c.Close(ctx); err != nil {
			t.Logf("error while closing testClient: %s", err)
		}
	}()
	t.Run("Client", c.TestClient)
	t.Run("Errors", c.TestErrors)
	t.Run("Diagnostics", c.TestDiagnostics)
}

func TestClientUnsupportedProtocol(t *testing.T) {
	c := client.NewClient()
	err := c.Configure(map[string]string{"CLIENT_PROTOCOL": "ftp"})
	require.Nil(t, err)
	err = c.Open(context.TODO())
	assert.NotNil(t, err)
}
