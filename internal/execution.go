package internal

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/antonio-alexander/go-employees-api/internal/data"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// GenerateId returns a random uuid (v4)
func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DoRequest sends input as a json body when it's not nil and returns the
// response regardless of its status code; the correlation id of ctx (if any)
// is forwarded
func DoRequest(ctx context.Context, client *http.Client, method, uri string, input any) (*Response, error) {
	var body io.Reader

	if input != nil {
		b, err := json.Marshal(input)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if correlationId := CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Set(data.HeaderCorrelationId, correlationId)
	}
	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	b, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read response from %s", uri)
	}
	return &Response{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		Body:       b,
	}, nil
}

// GetTlsConfig returns nil (no tls) when neither a certificate nor a ca
// certificate is provided
func GetTlsConfig(certFile, keyFile, caCertFile string) (*tls.Config, error) {
	if certFile == "" && keyFile == "" && caCertFile == "" {
		return nil, nil
	}
	tlsConfig := &tls.Config{
		// TLS versions below 1.2 are considered insecure
		// see https://www.rfc-editor.org/rfc/rfc7525.txt for details
		MinVersion: tls.VersionTLS12,
	}
	if caCertFile != "" {
		pem, err := os.ReadFile(caCertFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read ca certificate")
		}
		tlsConfig.RootCAs = x509.NewCertPool()
		if !tlsConfig.RootCAs.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in %s", caCertFile)
		}
	}
	if certFile != "" || keyFile != "" {
		certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{certificate}
	}
	return tlsConfig, nil
}
