package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/pkg/errors"
)

const contentTypeJson string = "application/json; charset=utf-8"

func idFromPath(pathVariables map[string]string) (int64, error) {
	s := pathVariables[data.PathId]
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, data.NewErrorInvalidInput("The value '%s' is not valid.", s)
	}
	return id, nil
}

// decodeEmployeePartial reads a json body, a body that can't be decoded is
// invalid input
func decodeEmployeePartial(request *http.Request) (data.EmployeePartial, error) {
	var employeePartial data.EmployeePartial

	bytes, err := io.ReadAll(request.Body)
	defer request.Body.Close()
	if err != nil {
		return data.EmployeePartial{}, err
	}
	if err := json.Unmarshal(bytes, &employeePartial); err != nil {
		return data.EmployeePartial{}, data.NewErrorInvalidInput("%s", err)
	}
	return employeePartial, nil
}

func errorStatusCode(err error) int {
	switch data.ErrorKindOf(err) {
	default:
		return http.StatusInternalServerError
	case data.ErrorKindInvalidInput:
		return http.StatusBadRequest
	case data.ErrorKindNotFound:
		return http.StatusNotFound
	}
}

func writeJson(writer http.ResponseWriter, statusCode int, item any) error {
	bytes, err := json.Marshal(item)
	if err != nil {
		return errors.Wrap(err, "unable to marshal response")
	}
	writer.Header().Set("Content-Type", contentTypeJson)
	writer.WriteHeader(statusCode)
	_, err = writer.Write(bytes)
	return err
}

// handleResponse writes the error as a message, an item as json or no content
// if there's neither
func handleResponse(writer http.ResponseWriter, err error, items ...any) error {
	switch {
	default:
		return writeJson(writer, http.StatusOK, items[0])
	case err != nil:
		return writeJson(writer, errorStatusCode(err), &data.Message{Message: err.Error()})
	case len(items) == 0:
		writer.WriteHeader(http.StatusNoContent)
		return nil
	}
}
