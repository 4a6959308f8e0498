package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bcms/bcms"
)

// parsePath parses /api/v1/{collection}/{id}/{action}
func parsePath(path, collection string) (id string, action string, err error) {
	path = strings.TrimPrefix(path, "/api/v1/"+collection+"/")
	path = strings.Trim(path, "/")

	if path == "" {
		return "", "", fmt.Errorf("invalid path: empty id")
	}

	parts := strings.Split(path, "/")

	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid path format")
	}
}

// parseMaxDepth reads maxDepth from the query. A missing value yields -1,
// which the engine replaces with its configured default.
func parseMaxDepth(queryParams url.Values) (int, error) {
	raw := queryParams.Get("maxDepth")
	if raw == "" {
		return -1, nil
	}
	depth, err := strconv.Atoi(raw)
	if err != nil || depth < 0 {
		return 0, fmt.Errorf("maxDepth must be a non-negative integer")
	}
	return depth, nil
}

// APIResponse is the standard error response format
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Level   string `json:"level,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeEngineError maps engine failures onto HTTP statuses. Prop errors
// answer 400 except internal ones.
func writeEngineError(w http.ResponseWriter, err error) error {
	var propErr *bcms.PropError
	if !errors.As(err, &propErr) {
		return writeError(w, http.StatusInternalServerError, err.Error())
	}

	status := http.StatusBadRequest
	if propErr.Type == bcms.ErrorTypeInternal {
		status = http.StatusInternalServerError
	}
	return writeJSON(w, status, APIResponse{
		Success: false,
		Error:   propErr.Message,
		Code:    propErr.Code,
		Level:   propErr.Level,
	})
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
