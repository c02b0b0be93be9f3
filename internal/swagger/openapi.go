package swagger

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

const (
	openApiVersion string = "3.0.1"
	refPrefix      string = "#/components/schemas/"
)

const (
	Title        string = "Employee Management API"
	Version      string = "v1.0.0"
	Description  string = "A simple API for managing employee records"
	ContactName  string = "Development Team"
	ContactEmail string = "dev@company.com"
)

// Document is an OpenAPI 3 document
type Document struct {
	*openapi3.T
}

func mapSchema(value *openapi3.Schema) *openapi3.Schema {
	return openapi3.NewObjectSchema().WithAdditionalProperties(value)
}

func schemas() openapi3.Schemas {
	return openapi3.Schemas{
		data.SchemaEmployee: openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithProperties(
			map[string]*openapi3.Schema{
				"id":         openapi3.NewInt64Schema(),
				"name":       openapi3.NewStringSchema().WithNullable(),
				"email":      openapi3.NewStringSchema().WithNullable(),
				"department": openapi3.NewStringSchema().WithNullable(),
				"position":   openapi3.NewStringSchema().WithNullable(),
				"salary":     openapi3.NewFloat64Schema().WithFormat("double"),
				"status":     openapi3.NewStringSchema().WithNullable(),
				"hireDate":   openapi3.NewDateTimeSchema(),
			})),
		data.SchemaMessage: openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
			WithProperty("message", openapi3.NewStringSchema())),
		data.SchemaCacheCounters: openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithProperties(
			map[string]*openapi3.Schema{
				"counter_hits":   mapSchema(openapi3.NewIntegerSchema()),
				"counter_misses": mapSchema(openapi3.NewIntegerSchema()),
			})),
		data.SchemaTimers: openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithProperties(
			map[string]*openapi3.Schema{
				"totals":   mapSchema(openapi3.NewInt64Schema()),
				"averages": mapSchema(openapi3.NewInt64Schema()),
			})),
	}
}

// ref references a component schema, the value is kept so the document can
// be validated without resolving references
func ref(components openapi3.Schemas, schema string) *openapi3.SchemaRef {
	var value *openapi3.Schema

	if schemaRef, ok := components[schema]; ok {
		value = schemaRef.Value
	}
	return openapi3.NewSchemaRef(refPrefix+schema, value)
}

func operation(components openapi3.Schemas, route data.Route) *openapi3.Operation {
	o := &openapi3.Operation{
		Summary:     route.Summary,
		Description: route.Description,
		OperationID: route.Name,
		Responses:   make(openapi3.Responses),
	}
	if route.Tag != "" {
		o.Tags = []string{route.Tag}
	}
	if route.PathId {
		o.Parameters = append(o.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(data.PathId).
				WithSchema(openapi3.NewInt64Schema()),
		})
	}
	o.Parameters = append(o.Parameters, &openapi3.ParameterRef{
		Value: openapi3.NewHeaderParameter(data.HeaderCorrelationId).
			WithDescription("echoed in the response and included in log lines").
			WithSchema(openapi3.NewStringSchema()),
	})
	if route.RequestBody != "" {
		o.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithJSONSchemaRef(ref(components, route.RequestBody)),
		}
	}
	for _, r := range route.Responses {
		description := r.Description
		if description == "" {
			description = http.StatusText(r.Status)
		}
		response := openapi3.NewResponse().WithDescription(description)
		if r.Schema != "" {
			schema := ref(components, r.Schema)
			if r.Array {
				schema = openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:  openapi3.TypeArray,
					Items: schema,
				})
			}
			response.WithJSONSchemaRef(schema)
		}
		o.Responses[strconv.Itoa(r.Status)] = &openapi3.ResponseRef{Value: response}
	}
	return o
}

// NewDocument generates an OpenAPI document with one operation per route
func NewDocument(routes []data.Route) *Document {
	components := schemas()
	t := &openapi3.T{
		OpenAPI: openApiVersion,
		Info: &openapi3.Info{
			Title:       Title,
			Description: Description,
			Version:     Version,
			Contact: &openapi3.Contact{
				Name:  ContactName,
				Email: ContactEmail,
			},
		},
		Paths: make(openapi3.Paths),
		Components: &openapi3.Components{
			Schemas: components,
		},
	}
	for _, route := range routes {
		t.AddOperation(route.Path, route.Method, operation(components, route))
	}
	return &Document{T: t}
}

// OperationIds returns every operation id in the document, sorted
func (d *Document) OperationIds() []string {
	var operationIds []string

	for _, pathItem := range d.Paths {
		for _, operation := range pathItem.Operations() {
			operationIds = append(operationIds, operation.OperationID)
		}
	}
	sort.Strings(operationIds)
	return operationIds
}

func (d *Document) MarshalJson() ([]byte, error) {
	return json.MarshalIndent(d.T, "", "  ")
}

// MarshalYaml converts the json encoding, references and schemas only
// implement json marshalling
func (d *Document) MarshalYaml() ([]byte, error) {
	var document map[string]any

	bytes, err := json.Marshal(d.T)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, &document); err != nil {
		return nil, err
	}
	return yaml.Marshal(document)
}
