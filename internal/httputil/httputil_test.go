package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalString(t *testing.T) {
	type patch struct {
		ParentID OptionalString `json:"parentId"`
	}

	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantValue   *string
	}{
		{"absent", `{}`, false, nil},
		{"null", `{"parentId": null}`, true, nil},
		{"value", `{"parentId": "abc"}`, true, strPtr("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p patch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.wantPresent, p.ParentID.Present)
			assert.Equal(t, tt.wantValue, p.ParentID.Value)
		})
	}
}

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusConflict, "folder already exists", map[string]any{"resourceId": "f1"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Conflict", body["title"])
	assert.Equal(t, "folder already exists", body["detail"])
	assert.Equal(t, "f1", body["resourceId"])
	assert.EqualValues(t, 409, body["status"])
}

func TestParseJSON(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Docs"}`))
	require.NoError(t, ParseJSON(rec, req, &dest))
	assert.Equal(t, "Docs", dest.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Docs","extra":1}`))
	assert.Error(t, ParseJSON(rec, req, &dest), "unknown fields are rejected")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, ParseJSON(rec, req, &dest))
}

func TestQueryInt(t *testing.T) {
	n, err := QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=25", nil), "limit")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = QueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = QueryInt(httptest.NewRequest(http.MethodGet, "/?limit=ten", nil), "limit")
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }
