package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/cache"
	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/swagger"
	"github.com/antonio-alexander/go-employees-api/internal/utilities"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

// Logic is what the service needs to serve the employee routes
type Logic interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeUpdate(ctx context.Context, id int64, employeePartial data.EmployeePartial) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
}

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		exposedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
		swaggerEnabled   bool
		sslCrtFile       string
		sslKeyFile       string
		sslCaFile        string
	}
	ctx     context.Context
	cancel  context.CancelFunc
	handler http.Handler
	server  *http.Server
	cache   internal.Clearer
	utilities.Logger
	utilities.Counter
	utilities.Timers
	Logic
}

func NewService(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	http.Handler
} {
	s := &service{
		Logger:  utilities.NewNopLogger(),
		Counter: utilities.NewCounter(),
		Timers:  utilities.NewTimers(),
	}
	s.setDefaults()
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case interface {
			cache.Cache
			internal.Clearer
		}:
			s.cache = p
		case Logic:
			s.Logic = p
		case utilities.Counter:
			s.Counter = p
		case utilities.Timers:
			s.Timers = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	s.handler = s.buildHandler()
	return s
}

func (s *service) setDefaults() {
	s.config.port = "8080"
	s.config.shutdownTimeout = 10 * time.Second
	s.config.allowedOrigins = []string{"*"}
	s.config.allowedMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodHead,
		http.MethodOptions,
	}
	s.config.allowedHeaders = []string{"*"}
	s.config.exposedHeaders = []string{"Location", data.HeaderCorrelationId}
	s.config.swaggerEnabled = true
}

func (s *service) launchServer(server *http.Server) error {
	started := make(chan struct{})
	chErr := make(chan error, 1)
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()
		defer close(chErr)

		close(started)
		var err error
		switch {
		default:
			err = server.ListenAndServe()
		case server.TLSConfig != nil:
			err = server.ListenAndServeTLS("", "")
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			chErr <- err
		}
	}()
	<-started
	select {
	case err := <-chErr:
		//KIM: here we're accounting for a situation where the server closes unexexpectedly
		// but quickly (within a second of starting); this allows us to respond to errors such as
		// the port being already used
		return err
	case <-time.After(time.Second):
		s.Info(context.Background(), "started server: %s", server.Addr)
		return nil
	}
}

// correlate makes sure every request has a correlation id, it's stored in
// the request context and echoed in the response
func (s *service) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		correlationId := request.Header.Get(data.HeaderCorrelationId)
		if correlationId == "" {
			correlationId = internal.GenerateId()
		}
		writer.Header().Set(data.HeaderCorrelationId, correlationId)
		ctx := internal.CtxWithCorrelationId(request.Context(), correlationId)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func (s *service) timed(name string, handlerFunc http.HandlerFunc) http.HandlerFunc {
	if !s.config.timersEnabled {
		return handlerFunc
	}
	return func(writer http.ResponseWriter, request *http.Request) {
		timerIndex := s.Timers.Start(name)
		defer func() {
			elapsedTime := s.Timers.Stop(name, timerIndex)
			s.Trace(request.Context(), "%s took %v", name,
				time.Duration(elapsedTime)*time.Nanosecond)
		}()
		handlerFunc(writer, request)
	}
}

func (s *service) respond(ctx context.Context, writer http.ResponseWriter, err error, items ...any) {
	if err != nil {
		switch statusCode := errorStatusCode(err); {
		case statusCode >= http.StatusInternalServerError:
			s.Error(ctx, "error while handling request: %s", err)
		default:
			s.Debug(ctx, "request failed (%d): %s", statusCode, err)
		}
	}
	if err := handleResponse(writer, err, items...); err != nil {
		s.Error(ctx, "error handling response: %s", err)
	}
}

func (s *service) endpointVersion(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(writer,
		"go-employees-api\n"+
			"Version: \"%s\"\n"+
			"Git Commit: \"%s\"\n"+
			"Git Branch: \"%s\"\n",
		Version, GitCommit, GitBranch)
}

func (s *service) endpointEmployeesRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employees, err := s.EmployeesRead(ctx)
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	if employees == nil {
		employees = []*data.Employee{}
	}
	s.respond(ctx, writer, nil, employees)
	s.Trace(ctx, "executed employees_read: %d", len(employees))
}

func (s *service) endpointEmployeeRead(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	employee, err := s.EmployeeRead(ctx, id)
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, nil, employee)
	s.Trace(ctx, "executed employee_read: %d", id)
}

func (s *service) endpointEmployeeCreate(router *mux.Router) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		employeePartial, err := decodeEmployeePartial(request)
		if err != nil {
			s.respond(ctx, writer, err)
			return
		}
		employee, err := s.EmployeeCreate(ctx, employeePartial)
		if err != nil {
			s.respond(ctx, writer, err)
			return
		}
		location, err := router.Get(data.OperationGetEmployeeById).
			URLPath(data.PathId, strconv.FormatInt(employee.Id, 10))
		if err != nil {
			s.respond(ctx, writer, err)
			return
		}
		writer.Header().Set("Location", location.String())
		if err := writeJson(writer, http.StatusCreated, employee); err != nil {
			s.Error(ctx, "error handling response: %s", err)
		}
		s.Trace(ctx, "executed employee_create: %d", employee.Id)
	}
}

func (s *service) endpointEmployeeUpdate(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	employeePartial, err := decodeEmployeePartial(request)
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	if _, err := s.EmployeeUpdate(ctx, id, employeePartial); err != nil {
		s.respond(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, nil)
	s.Trace(ctx, "executed employee_update: %d", id)
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	if err := s.EmployeeDelete(ctx, id); err != nil {
		s.respond(ctx, writer, err)
		return
	}
	s.respond(ctx, writer, nil)
	s.Trace(ctx, "executed employee_delete: %d", id)
}

func (s *service) endpointCacheClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.respond(ctx, writer, err)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	s.respond(ctx, writer, nil)
}

func (s *service) endpointCacheCountersRead(writer http.ResponseWriter, request *http.Request) {
	s.respond(request.Context(), writer, nil, s.Counter.ReadAll())
}

func (s *service) endpointCacheCountersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	s.Counter.Reset()
	s.respond(ctx, writer, nil)
	s.Trace(ctx, "executed cache_counters_clear")
}

func (s *service) endpointTimersRead(writer http.ResponseWriter, request *http.Request) {
	s.respond(request.Context(), writer, nil, s.Timers.ReadAll())
}

func (s *service) endpointTimersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	s.Timers.Clear()
	s.respond(ctx, writer, nil)
	s.Trace(ctx, "executed timers_clear")
}

func (s *service) endpointMetrics(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	employees, err := s.EmployeesRead(ctx)
	if err != nil {
		s.respond(ctx, writer, err)
		return
	}
	writer.Header().Set("Content-Type", string(utilities.MetricsFormat))
	if err := utilities.WriteMetrics(writer, s.Counter.ReadAll(),
		s.Timers.ReadAll(), len(employees)); err != nil {
		s.Error(ctx, "error while writing metrics: %s", err)
	}
}

func (s *service) endpointSwagger(contentType string, bytes []byte) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", contentType)
		if _, err := writer.Write(bytes); err != nil {
			s.Error(request.Context(), "error while writing swagger: %s", err)
		}
	}
}

func (s *service) buildSwaggerRoutes(router *mux.Router) error {
	document := swagger.NewDocument(data.Routes)
	bytesJson, err := document.MarshalJson()
	if err != nil {
		return err
	}
	bytesYaml, err := document.MarshalYaml()
	if err != nil {
		return err
	}
	bytesExplorer, err := swagger.Explorer(data.RouteSwaggerJson)
	if err != nil {
		return err
	}
	router.HandleFunc(data.RouteSwaggerJson,
		s.endpointSwagger(contentTypeJson, bytesJson)).Methods(http.MethodGet)
	router.HandleFunc(data.RouteSwaggerYaml,
		s.endpointSwagger("application/yaml; charset=utf-8", bytesYaml)).Methods(http.MethodGet)
	router.HandleFunc(data.RouteExplorer,
		s.endpointSwagger("text/html; charset=utf-8", bytesExplorer)).Methods(http.MethodGet)
	return nil
}

func (s *service) buildRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.correlate)
	handlers := map[string]http.HandlerFunc{
		data.OperationGetAllEmployees:    s.endpointEmployeesRead,
		data.OperationGetEmployeeById:    s.endpointEmployeeRead,
		data.OperationCreateEmployee:     s.endpointEmployeeCreate(router),
		data.OperationUpdateEmployee:     s.endpointEmployeeUpdate,
		data.OperationDeleteEmployee:     s.endpointEmployeeDelete,
		data.OperationCacheClear:         s.endpointCacheClear,
		data.OperationCacheCountersRead:  s.endpointCacheCountersRead,
		data.OperationCacheCountersClear: s.endpointCacheCountersClear,
		data.OperationTimersRead:         s.endpointTimersRead,
		data.OperationTimersClear:        s.endpointTimersClear,
	}
	for _, route := range data.Routes {
		handlerFunc, ok := handlers[route.Name]
		if !ok {
			continue
		}
		router.HandleFunc(route.Path, s.timed(route.Name, handlerFunc)).
			Methods(route.Method).
			Name(route.Name)
	}
	router.HandleFunc(data.RouteVersion, s.endpointVersion).Methods(http.MethodGet)
	router.HandleFunc(data.RouteMetrics, s.endpointMetrics).Methods(http.MethodGet)
	if !s.config.swaggerEnabled {
		router.HandleFunc(data.RouteExplorer, s.endpointVersion).Methods(http.MethodGet)
		return router
	}
	if err := s.buildSwaggerRoutes(router); err != nil {
		s.Error(context.Background(), "unable to build swagger routes: %s", err)
		router.HandleFunc(data.RouteExplorer, s.endpointVersion).Methods(http.MethodGet)
	}
	return router
}

func (s *service) buildHandler() http.Handler {
	router := s.buildRoutes()
	if s.config.corsDisabled {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins:   s.config.allowedOrigins,
		AllowCredentials: s.config.allowCredentials,
		AllowedMethods:   s.config.allowedMethods,
		AllowedHeaders:   s.config.allowedHeaders,
		ExposedHeaders:   s.config.exposedHeaders,
		Debug:            s.config.corsDebug,
	}).Handler(router)
}

func splitList(s string) []string {
	var items []string

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (s *service) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.RLock()
	handler := s.handler
	s.RUnlock()

	handler.ServeHTTP(writer, request)
}

func (s *service) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port := envs["SERVICE_PORT"]; port != "" {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins := splitList(envs["SERVICE_CORS_ALLOWED_ORIGINS"]); len(allowedOrigins) > 0 {
		s.config.allowedOrigins = allowedOrigins
	}
	if allowedMethods := splitList(envs["SERVICE_CORS_ALLOWED_METHODS"]); len(allowedMethods) > 0 {
		s.config.allowedMethods = allowedMethods
	}
	if allowedHeaders := splitList(envs["SERVICE_CORS_ALLOWED_HEADERS"]); len(allowedHeaders) > 0 {
		s.config.allowedHeaders = allowedHeaders
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	if swaggerEnabled := envs["SERVICE_SWAGGER_ENABLED"]; swaggerEnabled != "" {
		if swaggerEnabled, err := strconv.ParseBool(swaggerEnabled); err == nil {
			s.config.swaggerEnabled = swaggerEnabled
		}
	}
	if sslCrtFile, ok := envs["SERVICE_SSL_CRT_FILE"]; ok {
		s.config.sslCrtFile = sslCrtFile
	}
	if sslKeyFile, ok := envs["SERVICE_SSL_KEY_FILE"]; ok {
		s.config.sslKeyFile = sslKeyFile
	}
	if sslCaFile, ok := envs["SERVICE_SSL_CA_FILE"]; ok {
		s.config.sslCaFile = sslCaFile
	}
	s.handler = s.buildHandler()
	return nil
}

func (s *service) Open(ctx context.Context) error {
	server, err := s.newServer()
	if err != nil {
		return err
	}
	//KIM: the lock isn't held while the server starts, the server serves
	// requests through s (ServeHTTP) which needs it
	if err := s.launchServer(server); err != nil {
		s.Lock()
		s.cancel()
		s.server = nil
		s.Unlock()
		return err
	}
	return nil
}

// newServer creates a server whose handler is the service itself so that it
// serves whatever handler the last call to Configure built
func (s *service) newServer() (*http.Server, error) {
	s.Lock()
	defer s.Unlock()

	if s.Logic == nil {
		return nil, errors.New("logic not provided")
	}
	if s.server != nil {
		return nil, errors.New("service already opened")
	}
	var tlsConfig *tls.Config
	if s.config.sslCrtFile != "" || s.config.sslKeyFile != "" {
		var err error

		if tlsConfig, err = internal.GetTlsConfig(s.config.sslCrtFile,
			s.config.sslKeyFile, s.config.sslCaFile); err != nil {
			return nil, errors.Wrap(err, "unable to configure tls")
		}
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.server = &http.Server{
		Addr:      net.JoinHostPort(s.config.address, s.config.port),
		Handler:   s,
		TLSConfig: tlsConfig,
	}
	return s.server, nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	server, cancel, shutdownTimeout := s.server, s.cancel, s.config.shutdownTimeout
	s.server = nil
	s.Unlock()

	if server == nil {
		return nil
	}
	//KIM: in-flight requests need the lock (ServeHTTP) to finish
	ctx, cancelShutdown := context.WithTimeout(ctx, shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	cancel()
	s.Wait()
	return nil
}
