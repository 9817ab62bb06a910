package httputil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMuxVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

func TestParsePathString_ReturnsValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = withMuxVars(req, map[string]string{"component": "svc-a"})

	val, err := ParsePathString(req, "component")

	require.NoError(t, err)
	assert.Equal(t, "svc-a", val)
}

func TestParsePathString_MissingIsError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = withMuxVars(req, map[string]string{})

	_, err := ParsePathString(req, "component")

	assert.Error(t, err)
}

func buildMultipartRequest(t *testing.T, field, filename string, parts ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, content := range parts {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/x", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestParseSingleMultipartFile_ReturnsContent(t *testing.T) {
	req := buildMultipartRequest(t, "yaml_file", "d.yaml", "producers: []")

	data, err := ParseSingleMultipartFile(req, "yaml_file")

	require.NoError(t, err)
	assert.Equal(t, "producers: []", string(data))
}

func TestParseSingleMultipartFile_MissingFieldIsError(t *testing.T) {
	req := buildMultipartRequest(t, "other_field", "d.yaml", "content")

	_, err := ParseSingleMultipartFile(req, "yaml_file")

	assert.Error(t, err)
}

func TestParseSingleMultipartFile_MultipleFilesIsError(t *testing.T) {
	req := buildMultipartRequest(t, "yaml_file", "d.yaml", "one", "two")

	_, err := ParseSingleMultipartFile(req, "yaml_file")

	assert.Error(t, err)
}

func TestParseSingleMultipartFile_NotMultipartIsError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/x", bytes.NewBufferString("plain body"))

	_, err := ParseSingleMultipartFile(req, "yaml_file")

	assert.Error(t, err)
}
