package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// maxJSONBodyBytes caps metadata request bodies; uploads use multipart instead.
const maxJSONBodyBytes = 1 << 20

// ParseJSON decodes a JSON request body into dest.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// QueryInt reads an optional integer query parameter. Absent means 0.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", name)
	}
	return n, nil
}
