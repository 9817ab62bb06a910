package httputil

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a string path parameter.
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	val := vars[key]
	if val == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return val, nil
}

const maxDeclarationUploadBytes = 8 << 20 // 8 MiB, generous for a YAML declaration

// ParseSingleMultipartFile extracts exactly one file from the given
// multipart form field, erroring if zero or more than one file is
// present — the PUT interfaces/yaml endpoint requires exactly one
// yaml_file part (spec §6).
func ParseSingleMultipartFile(r *http.Request, field string) ([]byte, error) {
	if err := r.ParseMultipartForm(maxDeclarationUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	if r.MultipartForm == nil {
		return nil, fmt.Errorf("missing multipart form")
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, fmt.Errorf("missing required file field: %s", field)
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("expected exactly one file for field %s, got %d", field, len(files))
	}

	return readMultipartFile(files[0])
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}
