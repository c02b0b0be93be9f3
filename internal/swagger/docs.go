// Package swagger builds the OpenAPI document for the employee management
// api from the route table in data and renders the explorer page that
// browses it.
//
//	Schemes: http, https
//	Version: v1.0.0
//	BasePath: /
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
package swagger
