package swagger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/antonio-alexander/go-employees-api/internal/data"
	"github.com/antonio-alexander/go-employees-api/internal/swagger"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDocument(t *testing.T) {
	document := swagger.NewDocument(data.Routes)

	//the document is valid openapi
	err := document.Validate(context.TODO())
	assert.Nil(t, err)

	//every route is documented
	var operationIds []string
	for _, route := range data.Routes {
		operationIds = append(operationIds, route.Name)
		pathItem, ok := document.Paths[route.Path]
		if !assert.True(t, ok, "missing path %s", route.Path) {
			continue
		}
		operation := pathItem.GetOperation(route.Method)
		if !assert.NotNil(t, operation, "missing %s %s", route.Method, route.Path) {
			continue
		}
		assert.Equal(t, route.Name, operation.OperationID)
		assert.Len(t, operation.Responses, len(route.Responses))
	}
	assert.ElementsMatch(t, operationIds, document.OperationIds())

	//info
	assert.Equal(t, "Employee Management API", document.Info.Title)
	assert.Equal(t, "v1.0.0", document.Info.Version)
	assert.Equal(t, "Development Team", document.Info.Contact.Name)
	assert.Equal(t, "dev@company.com", document.Info.Contact.Email)

	//create
	operation := document.Paths[data.RouteEmployees].Post
	require.NotNil(t, operation)
	require.NotNil(t, operation.RequestBody)
	assert.Equal(t, "#/components/schemas/Employee",
		operation.RequestBody.Value.Content.Get("application/json").Schema.Ref)
	assert.NotNil(t, operation.Responses.Get(http.StatusCreated))
	assert.NotNil(t, operation.Responses.Get(http.StatusBadRequest))

	//list returns an array
	operation = document.Paths[data.RouteEmployees].Get
	require.NotNil(t, operation)
	schema := operation.Responses.Get(http.StatusOK).Value.Content.Get("application/json").Schema
	assert.Equal(t, "array", schema.Value.Type)
	assert.Equal(t, "#/components/schemas/Employee", schema.Value.Items.Ref)

	//id is a required path parameter
	operation = document.Paths[data.RouteEmployeesId].Put
	require.NotNil(t, operation)
	require.NotEmpty(t, operation.Parameters)
	parameter := operation.Parameters.GetByInAndName("path", data.PathId)
	require.NotNil(t, parameter)
	assert.True(t, parameter.Required)
	assert.Nil(t, operation.Responses.Get(http.StatusNoContent).Value.Content)
	assert.NotNil(t, operation.Parameters.GetByInAndName("header", data.HeaderCorrelationId))

	//schemas
	employee := document.Components.Schemas[data.SchemaEmployee]
	require.NotNil(t, employee)
	for _, property := range []string{"id", "name", "email", "department",
		"position", "salary", "status", "hireDate"} {
		assert.Contains(t, employee.Value.Properties, property)
	}
	assert.Contains(t, document.Components.Schemas[data.SchemaMessage].Value.Properties, "message")
}

func TestDocumentMarshal(t *testing.T) {
	document := swagger.NewDocument(data.Routes)

	bytes, err := document.MarshalJson()
	require.Nil(t, err)
	var fromJson map[string]any
	err = json.Unmarshal(bytes, &fromJson)
	require.Nil(t, err)
	assert.Equal(t, "3.0.1", fromJson["openapi"])
	assert.Contains(t, fromJson["paths"], data.RouteEmployeesId)

	bytes, err = document.MarshalYaml()
	require.Nil(t, err)
	var fromYaml map[string]any
	err = yaml.Unmarshal(bytes, &fromYaml)
	require.Nil(t, err)
	assert.Equal(t, "3.0.1", fromYaml["openapi"])
	assert.Contains(t, fromYaml["paths"], data.RouteEmployees)
	assert.Contains(t, string(bytes), "#/components/schemas/Employee")

	//the json document loads and validates
	bytes, err = document.MarshalJson()
	require.Nil(t, err)
	loaded, err := openapi3.NewLoader().LoadFromData(bytes)
	require.Nil(t, err)
	assert.Nil(t, loaded.Validate(context.TODO()))
	assert.Equal(t, swagger.Title, loaded.Info.Title)
}

func TestExplorer(t *testing.T) {
	bytes, err := swagger.Explorer(data.RouteSwaggerJson)
	require.Nil(t, err)
	page := string(bytes)
	assert.Contains(t, page, "swagger-ui")
	assert.Contains(t, page, "swagger.json")
	assert.Contains(t, page, swagger.Title)
	assert.Contains(t, http.DetectContentType(bytes), "text/html")
}
