package internal_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employees-api/internal"
	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		bytes, _ := io.ReadAll(request.Body)
		writer.Header().Set(data.HeaderCorrelationId, request.Header.Get(data.HeaderCorrelationId))
		writer.Header().Set("Content-Type", request.Header.Get("Content-Type"))
		switch request.Method {
		default:
			writer.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodPost:
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write(bytes)
		case http.MethodGet:
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"not found"}`))
		}
	}))
	defer server.Close()

	ctx := internal.CtxWithCorrelationId(context.TODO(), internal.GenerateId())
	name := "Ann"
	response, err := internal.DoRequest(ctx, server.Client(), http.MethodPost, server.URL,
		&data.EmployeePartial{Name: &name})
	require.Nil(t, err)
	assert.Equal(t, http.StatusCreated, response.StatusCode)
	assert.Equal(t, internal.CorrelationIdFromCtx(ctx), response.Header.Get(data.HeaderCorrelationId))
	assert.Equal(t, "application/json", response.Header.Get("Content-Type"))
	employeePartial := &data.EmployeePartial{}
	require.Nil(t, json.Unmarshal(response.Body, employeePartial))
	assert.Equal(t, name, *employeePartial.Name)

	//non-2xx responses aren't errors
	response, err = internal.DoRequest(context.TODO(), server.Client(), http.MethodGet, server.URL, nil)
	require.Nil(t, err)
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
	assert.Empty(t, response.Header.Get(data.HeaderCorrelationId))
	assert.JSONEq(t, `{"message":"not found"}`, string(response.Body))

	_, err = internal.DoRequest(context.TODO(), server.Client(), http.MethodGet, "http://127.0.0.1:0", nil)
	assert.NotNil(t, err)
}

func TestGetTlsConfig(t *testing.T) {
	tlsConfig, err := internal.GetTlsConfig("", "", "")
	assert.Nil(t, err)
	assert.Nil(t, tlsConfig)

	_, err = internal.GetTlsConfig("", "", filepath.Join(t.TempDir(), "missing.crt"))
	assert.NotNil(t, err)

	caCertFile := filepath.Join(t.TempDir(), "ca.crt")
	require.Nil(t, os.WriteFile(caCertFile, []byte("not a certificate"), 0600))
	_, err = internal.GetTlsConfig("", "", caCertFile)
	assert.NotNil(t, err)

	_, err = internal.GetTlsConfig(caCertFile, "", "")
	assert.NotNil(t, err)
}

func TestLaunchContext(t *testing.T) {
	var wg sync.WaitGroup

	osSignal := make(chan os.Signal, 1)
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()
	osSignal <- os.Interrupt
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		assert.Fail(t, "context not cancelled by signal")
	}
	wg.Wait()

	ctx, cancel = internal.LaunchContext(&wg, make(chan os.Signal))
	cancel()
	<-ctx.Done()
	wg.Wait()
}

func TestCorrelationId(t *testing.T) {
	assert.Empty(t, internal.CorrelationIdFromCtx(context.TODO()))
	ctx := internal.CtxWithCorrelationId(context.TODO(), "abc")
	assert.Equal(t, "abc", internal.CorrelationIdFromCtx(ctx))
	assert.NotEqual(t, internal.GenerateId(), internal.GenerateId())
}
