package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/railcheck/railcheck/internal/common/middleware"
	"github.com/railcheck/railcheck/internal/inspectsrv/apis"
)

func executeTestRequest(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	s, err := CreateNewServer()
	assert.NoError(t, err, "create new server")

	req.Header.Set(apis.HeaderDepotID, string(testDepot))
	req.Header.Set(apis.HeaderInspectorID, "INSP-1")
	req.Header.Set(apis.HeaderInspectorName, "Test Inspector")

	s.MountHandlers()

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	return rr
}

func checkHeader(t *testing.T, h http.Header) {
	expected := "application/json"
	got := h.Get("Content-Type")
	assert.Equal(t, expected, got, "Content-Type expected %s, got %s", expected, got)
	assert.NotNil(t, h.Get(middleware.RequestIDHeader), "No Request Id")
}

func compareJson(t *testing.T, expected any, actual string) {
	var j []byte
	var err error

	switch v := expected.(type) {
	case string:
		if json.Valid([]byte(v)) {
			j = []byte(v)
		} else {
			j, err = json.Marshal(v)
			assert.NoError(t, err, "json marshal")
		}
	case []byte:
		if json.Valid(v) {
			j = v
		} else {
			j, err = json.Marshal(string(v))
			assert.NoError(t, err, "json marshal")
		}
	default:
		j, err = json.Marshal(expected)
		assert.NoError(t, err, "json marshal")
	}

	assert.JSONEq(t, string(j), actual, "Expected: %v\nGot: %v\n", expected, actual)
}

func setRequestBodyAndHeader(t *testing.T, req *http.Request, data interface{}) {
	var jsonData []byte
	if s, ok := data.(string); ok {
		if json.Valid([]byte(s)) {
			jsonData = []byte(s)
		}
	} else if b, ok := data.([]byte); ok {
		if json.Valid(b) {
			jsonData = b
		}
	} else {
		var err error
		jsonData, err = json.Marshal(data)
		assert.NoError(t, err, "Failed to marshal data into JSON")
	}

	req.Body = io.NopCloser(bytes.NewReader(jsonData))
	req.ContentLength = int64(len(jsonData))

	req.Header.Set("Content-Type", "application/json")
}
