package data

import "net/http"

const (
	RouteEmployees     string = "/api/employees"
	RouteEmployeesId   string = RouteEmployees + "/{" + PathId + "}"
	RouteEmployeesIdf  string = RouteEmployees + "/%d"
	RouteCache         string = "/cache"
	RouteCacheCounters string = "/cachecounters"
	RouteTimers        string = "/timers"
	RouteMetrics       string = "/metrics"
	RouteVersion       string = "/version"
	RouteSwaggerJson   string = "/swagger/v1/swagger.json"
	RouteSwaggerYaml   string = "/swagger/v1/swagger.yaml"
	RouteExplorer      string = "/"
)

const PathId string = "id"

const HeaderCorrelationId string = "Correlation-Id"

const (
	OperationGetAllEmployees    string = "GetAllEmployees"
	OperationGetEmployeeById    string = "GetEmployeeById"
	OperationCreateEmployee     string = "CreateEmployee"
	OperationUpdateEmployee     string = "UpdateEmployee"
	OperationDeleteEmployee     string = "DeleteEmployee"
	OperationCacheClear         string = "DeleteCache"
	OperationCacheCountersRead  string = "ReadCacheCounters"
	OperationCacheCountersClear string = "DeleteCacheCounters"
	OperationTimersRead         string = "ReadTimers"
	OperationTimersClear        string = "DeleteTimers"
)

const (
	SchemaEmployee      string = "Employee"
	SchemaMessage       string = "Message"
	SchemaCacheCounters string = "CacheCounters"
	SchemaTimers        string = "Timers"
)

// Message is the body of every error response
type Message struct {
	Message string `json:"message"`
}

type CacheCounters struct {
	CounterHits   map[string]int `json:"counter_hits,omitempty"`
	CounterMisses map[string]int `json:"counter_misses,omitempty"`
}

type Timers struct {
	Totals   map[string]int64 `json:"totals,omitempty"`
	Averages map[string]int64 `json:"averages,omitempty"`
}

type RouteResponse struct {
	Status      int
	Description string
	Schema      string
	Array       bool
}

// Route describes one documented api operation; the service registers its
// handlers from this table and the schema document is generated from it
type Route struct {
	Name        string
	Method      string
	Path        string
	Tag         string
	Summary     string
	Description string
	PathId      bool
	RequestBody string
	Responses   []RouteResponse
}

var Routes = []Route{
	{
		Name:        OperationGetAllEmployees,
		Method:      http.MethodGet,
		Path:        RouteEmployees,
		Tag:         "Employees",
		Summary:     "Get all employees",
		Description: "Retrieves a list of all employees in the system",
		Responses: []RouteResponse{
			{Status: http.StatusOK, Description: "Successfully retrieved employees", Schema: SchemaEmployee, Array: true},
		},
	},
	{
		Name:        OperationGetEmployeeById,
		Method:      http.MethodGet,
		Path:        RouteEmployeesId,
		Tag:         "Employees",
		Summary:     "Get employee by ID",
		Description: "Retrieves a specific employee by their unique identifier",
		PathId:      true,
		Responses: []RouteResponse{
			{Status: http.StatusOK, Description: "Employee found", Schema: SchemaEmployee},
			{Status: http.StatusNotFound, Description: "Employee not found", Schema: SchemaMessage},
		},
	},
	{
		Name:        OperationCreateEmployee,
		Method:      http.MethodPost,
		Path:        RouteEmployees,
		Tag:         "Employees",
		Summary:     "Create a new employee",
		Description: "Creates a new employee record in the system",
		RequestBody: SchemaEmployee,
		Responses: []RouteResponse{
			{Status: http.StatusCreated, Description: "Employee created successfully", Schema: SchemaEmployee},
			{Status: http.StatusBadRequest, Description: "Invalid employee data", Schema: SchemaMessage},
		},
	},
	{
		Name:        OperationUpdateEmployee,
		Method:      http.MethodPut,
		Path:        RouteEmployeesId,
		Tag:         "Employees",
		Summary:     "Update an employee",
		Description: "Updates an existing employee's information",
		PathId:      true,
		RequestBody: SchemaEmployee,
		Responses: []RouteResponse{
			{Status: http.StatusNoContent, Description: "Employee updated successfully"},
			{Status: http.StatusNotFound, Description: "Employee not found", Schema: SchemaMessage},
			{Status: http.StatusBadRequest, Description: "Invalid employee data", Schema: SchemaMessage},
		},
	},
	{
		Name:        OperationDeleteEmployee,
		Method:      http.MethodDelete,
		Path:        RouteEmployeesId,
		Tag:         "Employees",
		Summary:     "Delete an employee",
		Description: "Removes an employee record from the system",
		PathId:      true,
		Responses: []RouteResponse{
			{Status: http.StatusNoContent, Description: "Employee deleted successfully"},
			{Status: http.StatusNotFound, Description: "Employee not found", Schema: SchemaMessage},
		},
	},
	{
		Name:    OperationCacheClear,
		Method:  http.MethodDelete,
		Path:    RouteCache,
		Tag:     "Diagnostics",
		Summary: "Deletes all items in the cache",
		Responses: []RouteResponse{
			{Status: http.StatusNoContent, Description: "Cache cleared"},
		},
	},
	{
		Name:    OperationCacheCountersRead,
		Method:  http.MethodGet,
		Path:    RouteCacheCounters,
		Tag:     "Diagnostics",
		Summary: "Reads all cache counters",
		Responses: []RouteResponse{
			{Status: http.StatusOK, Description: "Cache counters", Schema: SchemaCacheCounters},
		},
	},
	{
		Name:    OperationCacheCountersClear,
		Method:  http.MethodDelete,
		Path:    RouteCacheCounters,
		Tag:     "Diagnostics",
		Summary: "Deletes all cache counters",
		Responses: []RouteResponse{
			{Status: http.StatusNoContent, Description: "Cache counters cleared"},
		},
	},
	{
		Name:    OperationTimersRead,
		Method:  http.MethodGet,
		Path:    RouteTimers,
		Tag:     "Diagnostics",
		Summary: "Reads all timers",
		Responses: []RouteResponse{
			{Status: http.StatusOK, Description: "Endpoint timers", Schema: SchemaTimers},
		},
	},
	{
		Name:    OperationTimersClear,
		Method:  http.MethodDelete,
		Path:    RouteTimers,
		Tag:     "Diagnostics",
		Summary: "Deletes all timers",
		Responses: []RouteResponse{
			{Status: http.StatusNoContent, Description: "Timers cleared"},
		},
	},
}
