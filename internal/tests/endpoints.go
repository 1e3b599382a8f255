package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/stretchr/testify/require"
)

func GetOK(t *testing.T, router http.Handler, path string, params any, receiver any) {
	t.Helper()

	endpointWithReceiver(t, router, http.MethodGet, path, params, http.StatusOK, receiver)
}

func GetNotFound(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodGet, path, nil, http.StatusNotFound)
}

func PostOK(t *testing.T, router http.Handler, path string, body any, receiver any) {
	t.Helper()

	endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusOK, receiver)
}

func PostBadRequest(t *testing.T, router http.Handler, path string, body any) {
	t.Helper()

	endpoint(t, router, http.MethodPost, path, body, http.StatusBadRequest)
}

func PostNotFound(t *testing.T, router http.Handler, path string, body any) {
	t.Helper()

	endpoint(t, router, http.MethodPost, path, body, http.StatusNotFound)
}

func DeleteOK(t *testing.T, router http.Handler, path string, receiver any) {
	t.Helper()

	endpointWithReceiver(t, router, http.MethodDelete, path, nil, http.StatusOK, receiver)
}

func endpointWithReceiver(t *testing.T, router http.Handler, method string,
	path string, body any, expectedStatus int, receiver any,
) {
	t.Helper()

	resp := endpoint(t, router, method, path, body, expectedStatus)
	if receiver != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(receiver), "Failed to decode response")
	}
}

// endpoint performs the request. GET bodies are encoded as query parameters using their url tags.
func endpoint(t *testing.T, router http.Handler, method string, path string, body any, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	reqCtx, cancel := context.WithTimeout(t.Context(), time.Second*10)
	defer cancel()

	var bodyReader io.Reader

	switch {
	case body != nil && method == http.MethodGet:
		values, errValues := query.Values(body)
		require.NoError(t, errValues, "failed to encode values")

		path += "?" + values.Encode()
	case body != nil:
		bodyJSON, errJSON := json.Marshal(body)
		require.NoError(t, errJSON, "Failed to encode request")

		bodyReader = bytes.NewReader(bodyJSON)
	}

	request, errRequest := http.NewRequestWithContext(reqCtx, method, path, bodyReader)
	require.NoError(t, errRequest)

	if bodyReader != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, expectedStatus, recorder.Code, "Received invalid response code. method: %s path: %s body: %s",
		method, path, recorder.Body.String())

	return recorder
}
