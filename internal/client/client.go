package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/pkg/errors"
)

type Client interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeCreate(ctx context.Context,
		employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64,
		employeePartial data.EmployeePartial) error
	EmployeeDelete(ctx context.Context, id int64) error
	CacheClear(ctx context.Context) error
	CacheCountersRead(ctx context.Context) (*data.CacheCounters, error)
	CacheCountersClear(ctx context.Context) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol     string
		address      string
		port         string
		timeout      time.Duration
		sslCaFile    string
		sslCrtFile   string
		sslKeyFile   string
		cacheEnabled bool
	}
	address string
	cache   cache.Cache
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NewNopLogger(),
	}
	c.config.protocol = "http"
	c.config.address = "localhost"
	c.config.port = "8080"
	c.config.timeout = 10 * time.Second
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case cache.Cache:
			c.cache = p
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

// responseError converts an api error response, a {"message"} body is
// returned as a domain error when its status maps to a kind
func responseError(statusCode int, bytes []byte) error {
	var message data.Message

	if err := json.Unmarshal(bytes, &message); err != nil || message.Message == "" {
		return errors.Errorf("status code: %d; %s", statusCode, string(bytes))
	}
	switch statusCode {
	default:
		return errors.Errorf("status code: %d; %s", statusCode, message.Message)
	case http.StatusBadRequest:
		return &data.Error{Kind: data.ErrorKindInvalidInput, Message: message.Message}
	case http.StatusNotFound:
		return &data.Error{Kind: data.ErrorKindNotFound, Message: message.Message}
	}
}

func (c *client) cacheEnabled() bool {
	return c.config.cacheEnabled && c.cache != nil
}

func (c *client) doRequest(ctx context.Context, uri, method string, item any) ([]byte, error) {
	response, err := internal.DoRequest(ctx, c.Client, method, uri, item)
	if err != nil {
		return nil, err
	}
	switch response.StatusCode {
	default:
		return nil, responseError(response.StatusCode, response.Body)
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return response.Body, nil
	}
}

// doRead decodes the body of a successful request into a new T
func doRead[T any](ctx context.Context, c *client, uri, method string, item any) (*T, error) {
	bytes, err := c.doRequest(ctx, uri, method, item)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := json.Unmarshal(bytes, v); err != nil {
		return nil, errors.Wrapf(err, "unable to decode response from %s", uri)
	}
	return v, nil
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address := envs["CLIENT_ADDRESS"]; address != "" {
		c.config.address = address
	}
	if port := envs["CLIENT_PORT"]; port != "" {
		c.config.port = port
	}
	if protocol := envs["CLIENT_PROTOCOL"]; protocol != "" {
		c.config.protocol = protocol
	}
	if timeout := envs["CLIENT_TIMEOUT"]; timeout != "" {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid CLIENT_TIMEOUT")
		}
		c.config.timeout = time.Duration(i) * time.Second
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	if cacheEnabled, ok := envs["CLIENT_CACHE_ENABLED"]; ok {
		c.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	if c.cacheEnabled() {
		c.Info(ctx, "client: cache enabled")
	}
	c.Client.Timeout = c.config.timeout
	tlsConfig, err := internal.GetTlsConfig(c.config.sslCrtFile,
		c.config.sslKeyFile, c.config.sslCaFile)
	if err != nil {
		return err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	c.Client.Transport = transport
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) employeeUri(id int64) string {
	return fmt.Sprintf(c.address+data.RouteEmployeesIdf, id)
}

func (c *client) cacheEvict(ctx context.Context, id int64) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.EmployeesDelete(ctx, id); err != nil {
		c.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

func (c *client) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	employees, err := doRead[[]*data.Employee](ctx, c, c.address+data.RouteEmployees, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return *employees, nil
}

func (c *client) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	if c.cacheEnabled() {
		employee, err := c.cache.EmployeeRead(ctx, id)
		if err == nil {
			return employee, nil
		}
		c.Trace(ctx, "error while reading employee (%d) from cache: %s", id, err)
	}
	employee, err := doRead[data.Employee](ctx, c, c.employeeUri(id), http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if c.cacheEnabled() {
		if err := c.cache.EmployeesWrite(ctx, employee); err != nil {
			c.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		}
	}
	return employee, nil
}

func (c *client) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	return doRead[data.Employee](ctx, c, c.address+data.RouteEmployees, http.MethodPost, &employeePartial)
}

// EmployeeUpdate and EmployeeDelete evict the employee from the client
// cache once the service has accepted the change
func (c *client) EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) error {
	if _, err := c.doRequest(ctx, c.employeeUri(id), http.MethodPut, &employeePartial); err != nil {
		return err
	}
	c.cacheEvict(ctx, id)
	return nil
}

func (c *client) EmployeeDelete(ctx context.Context, id int64) error {
	if _, err := c.doRequest(ctx, c.employeeUri(id), http.MethodDelete, nil); err != nil {
		return err
	}
	c.cacheEvict(ctx, id)
	return nil
}

func (c *client) CacheClear(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.address+data.RouteCache, http.MethodDelete, nil)
	return err
}

func (c *client) CacheCountersRead(ctx context.Context) (*data.CacheCounters, error) {
	return doRead[data.CacheCounters](ctx, c, c.address+data.RouteCacheCounters, http.MethodGet, nil)
}

func (c *client) CacheCountersClear(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.address+data.RouteCacheCounters, http.MethodDelete, nil)
	return err
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	return doRead[data.Timers](ctx, c, c.address+data.RouteTimers, http.MethodGet, nil)
}

func (c *client) TimersClear(ctx context.Context) error {
	_, err := c.doRequest(ctx, c.address+data.RouteTimers, http.MethodDelete, nil)
	return err
}
